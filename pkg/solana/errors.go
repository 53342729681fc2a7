package solana

import (
	"fmt"

	"github.com/pkg/errors"
)

// TransactionErrorKey is the string key of a transaction level error.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorAccountInUse               TransactionErrorKey = "AccountInUse"               // An account is already being processed in another transaction in a way that does not support parallelism
	TransactionErrorAccountLoadedTwice         TransactionErrorKey = "AccountLoadedTwice"         // A `Pubkey` appears twice in the transaction's `account_keys`
	TransactionErrorProgramAccountNotFound     TransactionErrorKey = "ProgramAccountNotFound"     // Attempt to load a program that does not exist
	TransactionErrorInstructionError           TransactionErrorKey = "InstructionError"           // An error occurred while processing an instruction
	TransactionErrorMissingSignatureForFee     TransactionErrorKey = "MissingSignatureForFee"     // Transaction requires a fee but has no signature present
	TransactionErrorInvalidAccountIndex        TransactionErrorKey = "InvalidAccountIndex"        // Transaction contains an invalid account reference
	TransactionErrorSignatureFailure           TransactionErrorKey = "SignatureFailure"           // Transaction did not pass signature verification
	TransactionErrorInvalidProgramForExecution TransactionErrorKey = "InvalidProgramForExecution" // This program may not be used for executing instructions
	TransactionErrorSanitizeFailure            TransactionErrorKey = "SanitizeFailure"            // Transaction failed to sanitize accounts offsets correctly
	TransactionErrorUnsupportedVersion         TransactionErrorKey = "UnsupportedVersion"         // Transaction version is unsupported
	TransactionErrorDuplicateSignature         TransactionErrorKey = "DuplicateSignature"         // The bank has seen this transaction before
	TransactionErrorBlockhashNotFound          TransactionErrorKey = "BlockhashNotFound"          // The bank hasn't seen the transaction's recent blockhash, or it has expired
	TransactionErrorInsufficientFundsForRent   TransactionErrorKey = "InsufficientFundsForRent"   // Transaction leaves an account with a lower balance than rent-exempt minimum
)

func (k TransactionErrorKey) Error() string {
	return string(k)
}

// InstructionErrorKey is the string key of a builtin instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorGenericError                InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument             InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData      InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData          InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall         InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorInsufficientFunds           InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID          InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature    InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized   InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount        InstructionErrorKey = "UninitializedAccount"
	InstructionErrorUnbalancedInstruction       InstructionErrorKey = "UnbalancedInstruction"
	InstructionErrorModifiedProgramID           InstructionErrorKey = "ModifiedProgramId"
	InstructionErrorExternalAccountLamportSpend InstructionErrorKey = "ExternalAccountLamportSpend"
	InstructionErrorExternalAccountDataModified InstructionErrorKey = "ExternalAccountDataModified"
	InstructionErrorReadonlyLamportChange       InstructionErrorKey = "ReadonlyLamportChange"
	InstructionErrorReadonlyDataModified        InstructionErrorKey = "ReadonlyDataModified"
	InstructionErrorExecutableModified          InstructionErrorKey = "ExecutableModified"
	InstructionErrorNotEnoughAccountKeys        InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorAccountNotExecutable        InstructionErrorKey = "AccountNotExecutable"
	InstructionErrorCustom                      InstructionErrorKey = "Custom"
	InstructionErrorUnsupportedProgramID        InstructionErrorKey = "UnsupportedProgramId"
	InstructionErrorCallDepth                   InstructionErrorKey = "CallDepth"
	InstructionErrorMissingAccount              InstructionErrorKey = "MissingAccount"
	InstructionErrorPrivilegeEscalation         InstructionErrorKey = "PrivilegeEscalation"
	InstructionErrorMaxSeedLengthExceeded       InstructionErrorKey = "MaxSeedLengthExceeded"
	InstructionErrorInvalidSeeds                InstructionErrorKey = "InvalidSeeds"
	InstructionErrorInvalidRealloc              InstructionErrorKey = "InvalidRealloc"
)

func (k InstructionErrorKey) Error() string {
	return string(k)
}

// ProgramError is implemented by program specific error codes, which surface
// as custom errors on the ledger.
type ProgramError interface {
	error
	Code() uint32
}

// CustomError is the numerical error returned by a non-system program.
type CustomError uint32

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x", uint32(c))
}

func (c CustomError) Code() uint32 {
	return uint32(c)
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

// NewInstructionError wraps err as the failure of the instruction at index.
func NewInstructionError(index int, err error) *InstructionError {
	return &InstructionError{
		Index: index,
		Err:   err,
	}
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

func (i InstructionError) Unwrap() error {
	return i.Err
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}

	if i.CustomError() != nil {
		return InstructionErrorCustom
	}

	var key InstructionErrorKey
	if errors.As(i.Err, &key) {
		return key
	}

	return InstructionErrorGenericError
}

// CustomError returns the custom error code of the failure, if the failing
// program returned one.
func (i InstructionError) CustomError() *CustomError {
	var pe ProgramError
	if errors.As(i.Err, &pe) {
		ce := CustomError(pe.Code())
		return &ce
	}

	return nil
}

// JSONString renders the error the way the ledger RPC reports it.
func (i InstructionError) JSONString() string {
	if ce := i.CustomError(); ce != nil {
		return fmt.Sprintf(`[%d, {"%s": %d}]`, i.Index, InstructionErrorCustom, uint32(*ce))
	}

	return fmt.Sprintf(`[%d, "%s"]`, i.Index, i.ErrorKey())
}
