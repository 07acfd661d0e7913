package softether

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"softether-exporter/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeStatus decodes the CSV output of "vpncmd /CSV /CMD StatusGet".
//
// Rows are key/value pairs in any supported locale. The header row and rows
// with unknown labels are skipped. Fields missing from the report stay at
// their zero value. When a field appears twice the last row wins.
func DecodeStatus(src []byte) (model.HubStatus, error) {
	return defaultTranslator.decodeStatus(src)
}

func (t *translator) decodeStatus(src []byte) (model.HubStatus, error) {
	var status model.HubStatus

	r := newTableReader(src)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.HubStatus{}, ioError(err)
		}
		if len(record) < 2 {
			return model.HubStatus{}, ioError(fmt.Errorf("status row has %d columns, want 2", len(record)))
		}

		id, ok := t.fields[record[0]]
		if !ok {
			continue
		}
		if err := t.apply(&status, id, record[1]); err != nil {
			return model.HubStatus{}, err
		}
	}
	return status, nil
}

func (t *translator) apply(status *model.HubStatus, id FieldID, value string) error {
	spec := fieldSpecs[id]
	switch spec.kind {
	case kindText:
		status.Name = value
	case kindFlag:
		switch id {
		case FieldOnline:
			status.Online = t.isOnline(value)
		case FieldSecureNAT:
			status.SecureNATEnabled = t.isSecureNATEnabled(value)
		}
	default:
		v, err := parseByKind(spec.kind, value)
		if err != nil {
			return numericError(spec.name, err)
		}
		*spec.value(status) = v
	}
	return nil
}

func parseByKind(kind fieldKind, raw string) (float64, error) {
	switch kind {
	case kindPackets:
		return ParsePacketCount(raw)
	case kindBytes:
		return ParseByteCount(raw)
	default:
		return ParseCount(raw)
	}
}

func newTableReader(src []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(src, utf8BOM)))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	return r
}
