package softether

import (
	"errors"
	"fmt"
	"io"

	"softether-exporter/internal/model"
)

// SessionList columns, in vpncmd order.
const (
	colSessionName = iota
	colVLANID
	colLocation
	colUser
	colSourceHost
	colConnections
	colTransferBytes
	colTransferPackets

	sessionColumns
)

// DecodeSessions decodes the CSV output of "vpncmd /CSV /CMD SessionList".
//
// Columns are positional. The first row is the header and is skipped. Any
// malformed numeric column fails the whole report.
func DecodeSessions(src []byte) ([]model.HubSession, error) {
	r := newTableReader(src)

	sessions := make([]model.HubSession, 0)
	header := true
	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ioError(err)
		}
		if len(record) < sessionColumns {
			return nil, ioError(fmt.Errorf("session row %d has %d columns, want %d", row, len(record), sessionColumns))
		}
		if header {
			header = false
			continue
		}

		session, err := decodeSessionRow(record)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func decodeSessionRow(record []string) (model.HubSession, error) {
	established, limit, err := ParseConnectionPair(record[colConnections])
	if err != nil {
		return model.HubSession{}, numericError("connections", err)
	}
	bytes, err := ParseByteCount(record[colTransferBytes])
	if err != nil {
		return model.HubSession{}, numericError("transfer_bytes", err)
	}
	packets, err := ParsePacketCount(record[colTransferPackets])
	if err != nil {
		return model.HubSession{}, numericError("transfer_packets", err)
	}

	return model.HubSession{
		Name:            record[colSessionName],
		VLANID:          record[colVLANID],
		Location:        record[colLocation],
		User:            record[colUser],
		SourceHost:      record[colSourceHost],
		Connections:     model.ConnectionPair{Established: established, Max: limit},
		TransferBytes:   bytes,
		TransferPackets: packets,
	}, nil
}
