package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// NewRelicLogFormatter is a logrus.Formatter that forwards every entry to New
// Relic alongside the wrapped formatter's output. Unlike the stock nrlogrus
// formatter, entry fields (pool, user, nft_mint, etc.) are kept in the
// forwarded message so they're searchable in New Relic.
type NewRelicLogFormatter struct {
	app       *newrelic.Application
	formatter logrus.Formatter
}

func NewCustomNewRelicLogFormatter(app *newrelic.Application, formatter logrus.Formatter) NewRelicLogFormatter {
	return NewRelicLogFormatter{
		app:       app,
		formatter: formatter,
	}
}

// Format implements logrus.Formatter.Format
func (f NewRelicLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	formatted, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}
	b := bytes.NewBuffer(bytes.TrimRight(formatted, "\n"))

	logData := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  forwardedMessage(e),
	}

	var txn *newrelic.Transaction
	if e.Context != nil {
		txn = newrelic.FromContext(e.Context)
	}

	if txn != nil {
		txn.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromTxn(txn))
	} else {
		f.app.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromApp(f.app))
	}
	if err != nil {
		return nil, err
	}

	b.WriteString("\n")
	return b.Bytes(), nil
}

// forwardedMessage folds the entry's error and fields into the message, since
// LogData has no structured attributes.
func forwardedMessage(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	errorString := "<nil>"
	fields := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if err, ok := v.(error); ok && k == logrus.ErrorKey {
			errorString = fmt.Sprintf("%q", err.Error())
			continue
		}
		fields[k] = v
	}

	// json.Marshal sorts map keys, so equal entries produce equal messages
	encoded, err := json.Marshal(fields)
	if err != nil {
		return e.Message
	}
	return fmt.Sprintf("message=%q, error=%s, data=%s", e.Message, errorString, encoded)
}
