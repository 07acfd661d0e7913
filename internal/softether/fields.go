package softether

import "softether-exporter/internal/model"

// FieldID is the locale independent identity of a StatusGet row.
type FieldID int

const (
	FieldUnknown FieldID = iota
	FieldName
	FieldOnline
	FieldSecureNAT
	FieldSessions
	FieldSessionsClient
	FieldSessionsBridge
	FieldAccessLists
	FieldUsers
	FieldGroups
	FieldMACTables
	FieldIPTables
	FieldLogins
	FieldOutgoingUnicastPackets
	FieldOutgoingUnicastBytes
	FieldOutgoingBroadcastPackets
	FieldOutgoingBroadcastBytes
	FieldIncomingUnicastPackets
	FieldIncomingUnicastBytes
	FieldIncomingBroadcastPackets
	FieldIncomingBroadcastBytes
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindFlag
	kindCount
	kindPackets
	kindBytes
)

type fieldSpec struct {
	name  string
	kind  fieldKind
	value func(*model.HubStatus) *float64
}

var fieldSpecs = map[FieldID]fieldSpec{
	FieldName:      {name: "name", kind: kindText},
	FieldOnline:    {name: "online", kind: kindFlag},
	FieldSecureNAT: {name: "secure_nat", kind: kindFlag},

	FieldSessions:       {name: "sessions", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.SessionCount }},
	FieldSessionsClient: {name: "sessions_client", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.ClientSessionCount }},
	FieldSessionsBridge: {name: "sessions_bridge", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.BridgeSessionCount }},
	FieldAccessLists:    {name: "access_lists", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.AccessListCount }},
	FieldUsers:          {name: "users", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.UserCount }},
	FieldGroups:         {name: "groups", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.GroupCount }},
	FieldMACTables:      {name: "mac_tables", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.MACTableCount }},
	FieldIPTables:       {name: "ip_tables", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.IPTableCount }},
	FieldLogins:         {name: "logins", kind: kindCount, value: func(s *model.HubStatus) *float64 { return &s.LoginCount }},

	FieldOutgoingUnicastPackets:   {name: "outgoing_unicast_packets", kind: kindPackets, value: func(s *model.HubStatus) *float64 { return &s.OutgoingUnicastPackets }},
	FieldOutgoingUnicastBytes:     {name: "outgoing_unicast_bytes", kind: kindBytes, value: func(s *model.HubStatus) *float64 { return &s.OutgoingUnicastBytes }},
	FieldOutgoingBroadcastPackets: {name: "outgoing_broadcast_packets", kind: kindPackets, value: func(s *model.HubStatus) *float64 { return &s.OutgoingBroadcastPackets }},
	FieldOutgoingBroadcastBytes:   {name: "outgoing_broadcast_bytes", kind: kindBytes, value: func(s *model.HubStatus) *float64 { return &s.OutgoingBroadcastBytes }},
	FieldIncomingUnicastPackets:   {name: "incoming_unicast_packets", kind: kindPackets, value: func(s *model.HubStatus) *float64 { return &s.IncomingUnicastPackets }},
	FieldIncomingUnicastBytes:     {name: "incoming_unicast_bytes", kind: kindBytes, value: func(s *model.HubStatus) *float64 { return &s.IncomingUnicastBytes }},
	FieldIncomingBroadcastPackets: {name: "incoming_broadcast_packets", kind: kindPackets, value: func(s *model.HubStatus) *float64 { return &s.IncomingBroadcastPackets }},
	FieldIncomingBroadcastBytes:   {name: "incoming_broadcast_bytes", kind: kindBytes, value: func(s *model.HubStatus) *float64 { return &s.IncomingBroadcastBytes }},
}

func (f FieldID) String() string {
	if spec, ok := fieldSpecs[f]; ok {
		return spec.name
	}
	return "unknown"
}

// Locale is the vocabulary one vpncmd language build uses in StatusGet.
type Locale struct {
	Name   string
	Labels map[FieldID]string
	// Online is the status value meaning the hub is online.
	Online string
	// SecureNATOff is the SecureNAT value meaning the function is disabled.
	SecureNATOff string
}

var (
	LocaleJapanese = Locale{
		Name: "ja",
		Labels: map[FieldID]string{
			FieldName:                     "仮想 HUB 名",
			FieldOnline:                   "状態",
			FieldSecureNAT:                "SecureNAT 機能",
			FieldSessions:                 "セッション数",
			FieldSessionsClient:           "セッション数 (クライアント)",
			FieldSessionsBridge:           "セッション数 (ブリッジ)",
			FieldAccessLists:              "アクセスリスト数",
			FieldUsers:                    "ユーザー数",
			FieldGroups:                   "グループ数",
			FieldMACTables:                "MAC テーブル数",
			FieldIPTables:                 "IP テーブル数",
			FieldLogins:                   "ログイン回数",
			FieldOutgoingUnicastPackets:   "送信ユニキャストパケット数",
			FieldOutgoingUnicastBytes:     "送信ユニキャスト合計サイズ",
			FieldOutgoingBroadcastPackets: "送信ブロードキャストパケット数",
			FieldOutgoingBroadcastBytes:   "送信ブロードキャスト合計サイズ",
			FieldIncomingUnicastPackets:   "受信ユニキャストパケット数",
			FieldIncomingUnicastBytes:     "受信ユニキャスト合計サイズ",
			FieldIncomingBroadcastPackets: "受信ブロードキャストパケット数",
			FieldIncomingBroadcastBytes:   "受信ブロードキャスト合計サイズ",
		},
		Online:       "オンライン",
		SecureNATOff: "無効",
	}

	LocaleEnglish = Locale{
		Name: "en",
		Labels: map[FieldID]string{
			FieldName:                     "Virtual Hub Name",
			FieldOnline:                   "Status",
			FieldSecureNAT:                "SecureNAT",
			FieldSessions:                 "Sessions",
			FieldSessionsClient:           "Sessions (Client)",
			FieldSessionsBridge:           "Sessions (Bridge)",
			FieldAccessLists:              "Access Lists",
			FieldUsers:                    "Users",
			FieldGroups:                   "Groups",
			FieldMACTables:                "MAC Tables",
			FieldIPTables:                 "IP Tables",
			FieldLogins:                   "Num Logins",
			FieldOutgoingUnicastPackets:   "Outgoing Unicast Packets",
			FieldOutgoingUnicastBytes:     "Outgoing Unicast Total Size",
			FieldOutgoingBroadcastPackets: "Outgoing Broadcast Packets",
			FieldOutgoingBroadcastBytes:   "Outgoing Broadcast Total Size",
			FieldIncomingUnicastPackets:   "Incoming Unicast Packets",
			FieldIncomingUnicastBytes:     "Incoming Unicast Total Size",
			FieldIncomingBroadcastPackets: "Incoming Broadcast Packets",
			FieldIncomingBroadcastBytes:   "Incoming Broadcast Total Size",
		},
		Online:       "Online",
		SecureNATOff: "Disabled",
	}

	LocaleChinese = Locale{
		Name: "cn",
		Labels: map[FieldID]string{
			FieldName:                     "虚拟 HUB 名称",
			FieldOnline:                   "状态",
			FieldSecureNAT:                "SecureNAT 机能",
			FieldSessions:                 "会话数",
			FieldSessionsClient:           "会话数 (客户端)",
			FieldSessionsBridge:           "会话数 (网桥)",
			FieldAccessLists:              "访问列表",
			FieldUsers:                    "用户数",
			FieldGroups:                   "组数",
			FieldMACTables:                "MAC 表数",
			FieldIPTables:                 "IP 表数",
			FieldLogins:                   "登录次数",
			FieldOutgoingUnicastPackets:   "发送单播数据包",
			FieldOutgoingUnicastBytes:     "发送单播总量",
			FieldOutgoingBroadcastPackets: "发送广播数据包",
			FieldOutgoingBroadcastBytes:   "发送广播总量",
			FieldIncomingUnicastPackets:   "接收单播数据包",
			FieldIncomingUnicastBytes:     "接收单播总量",
			FieldIncomingBroadcastPackets: "接收广播数据包",
			FieldIncomingBroadcastBytes:   "接收广播总量",
		},
		Online:       "在线",
		SecureNATOff: "无效",
	}

	Locales = []Locale{LocaleJapanese, LocaleEnglish, LocaleChinese}
)

type translator struct {
	fields       map[string]FieldID
	online       map[string]struct{}
	secureNATOff map[string]struct{}
}

var defaultTranslator = newTranslator(Locales)

func newTranslator(locales []Locale) *translator {
	t := &translator{
		fields:       make(map[string]FieldID),
		online:       make(map[string]struct{}),
		secureNATOff: make(map[string]struct{}),
	}
	for _, loc := range locales {
		for id, label := range loc.Labels {
			t.fields[label] = id
		}
		t.online[loc.Online] = struct{}{}
		t.secureNATOff[loc.SecureNATOff] = struct{}{}
	}
	return t
}

// CanonicalKey maps a localized StatusGet label to its field. Labels outside
// the table report false and are meant to be skipped.
func CanonicalKey(label string) (FieldID, bool) {
	id, ok := defaultTranslator.fields[label]
	return id, ok
}

func (t *translator) isOnline(value string) bool {
	_, ok := t.online[value]
	return ok
}

func (t *translator) isSecureNATEnabled(value string) bool {
	if value == "" {
		return false
	}
	_, off := t.secureNATOff[value]
	return !off
}
