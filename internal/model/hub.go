package model

import "time"

// HubStatus is one virtual hub's administrative snapshot as reported by StatusGet.
// Counts are float64 to match the metrics value domain.
type HubStatus struct {
	Name             string `json:"name"`
	Online           bool   `json:"online"`
	SecureNATEnabled bool   `json:"secure_nat_enabled"`

	SessionCount       float64 `json:"session_count"`
	ClientSessionCount float64 `json:"client_session_count"`
	BridgeSessionCount float64 `json:"bridge_session_count"`
	AccessListCount    float64 `json:"access_list_count"`
	UserCount          float64 `json:"user_count"`
	GroupCount         float64 `json:"group_count"`
	MACTableCount      float64 `json:"mac_table_count"`
	IPTableCount       float64 `json:"ip_table_count"`
	LoginCount         float64 `json:"login_count"`

	OutgoingUnicastPackets   float64 `json:"outgoing_unicast_packets"`
	OutgoingUnicastBytes     float64 `json:"outgoing_unicast_bytes"`
	OutgoingBroadcastPackets float64 `json:"outgoing_broadcast_packets"`
	OutgoingBroadcastBytes   float64 `json:"outgoing_broadcast_bytes"`
	IncomingUnicastPackets   float64 `json:"incoming_unicast_packets"`
	IncomingUnicastBytes     float64 `json:"incoming_unicast_bytes"`
	IncomingBroadcastPackets float64 `json:"incoming_broadcast_packets"`
	IncomingBroadcastBytes   float64 `json:"incoming_broadcast_bytes"`
}

// ConnectionPair is the "established / max" TCP connection count of a session.
type ConnectionPair struct {
	Established float64 `json:"established"`
	Max         float64 `json:"max"`
}

// HubSession is one row of SessionList.
type HubSession struct {
	Name            string         `json:"name"`
	VLANID          string         `json:"vlan_id"`
	Location        string         `json:"location"`
	User            string         `json:"user"`
	SourceHost      string         `json:"source_host"`
	Connections     ConnectionPair `json:"connections"`
	TransferBytes   float64        `json:"transfer_bytes"`
	TransferPackets float64        `json:"transfer_packets"`
}

// UserTransfer is the per-user sum of session transfer counters within one hub.
type UserTransfer struct {
	User    string  `json:"user"`
	Bytes   float64 `json:"bytes"`
	Packets float64 `json:"packets"`
}

// HubSnapshot is the result of one successful scrape of one hub.
type HubSnapshot struct {
	Hub       string         `json:"hub"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration"`
	Status    HubStatus      `json:"status"`
	Sessions  int            `json:"sessions"`
	Users     []UserTransfer `json:"users"`
}
