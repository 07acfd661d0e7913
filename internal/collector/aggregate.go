package collector

import (
	"sort"

	"softether-exporter/internal/model"
)

// AggregateUsers sums transfer bytes and packets of sessions per user name.
// The result is sorted by user and does not depend on session order.
func AggregateUsers(sessions []model.HubSession) []model.UserTransfer {
	byUser := make(map[string]*model.UserTransfer, len(sessions))
	for _, s := range sessions {
		agg, ok := byUser[s.User]
		if !ok {
			agg = &model.UserTransfer{User: s.User}
			byUser[s.User] = agg
		}
		agg.Bytes += s.TransferBytes
		agg.Packets += s.TransferPackets
	}

	out := make([]model.UserTransfer, 0, len(byUser))
	for _, agg := range byUser {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}
