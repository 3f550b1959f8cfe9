package cleanup

import (
	"context"
	"fmt"
	"sort"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// activeReadRateMin is the read-rate percentage above which a subscription
// counts as active.
const activeReadRateMin = 20.0

// SubscriptionAnalysis summarizes marketing mail per sender domain: message
// count, most recent date, read rate, and whether any message carries an
// unsubscribe link. Domains are returned highest-volume first.
func (e *Engine) SubscriptionAnalysis(ctx context.Context, accountID string) ([]model.SubscriptionInfo, error) {
	msgs, err := e.store.GetMessages(ctx, service.MessageFilter{
		AccountID: accountID,
		Category:  "marketing",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	type domainStats struct {
		info model.SubscriptionInfo
		read int
	}
	domains := make(map[string]*domainStats)

	for _, msg := range msgs {
		domain := msg.SenderDomain()
		if domain == "" {
			continue
		}
		stats, ok := domains[domain]
		if !ok {
			stats = &domainStats{info: model.SubscriptionInfo{Domain: domain}}
			domains[domain] = stats
		}
		stats.info.Count++
		if msg.IsRead {
			stats.read++
		}
		if msg.HasUnsubscribeLink() {
			stats.info.HasUnsubscribe = true
		}
		if msg.Date.After(stats.info.LastDate) {
			stats.info.LastDate = msg.Date
		}
	}

	infos := make([]model.SubscriptionInfo, 0, len(domains))
	for _, stats := range domains {
		stats.info.ReadRate = float64(stats.read) / float64(stats.info.Count) * 100
		stats.info.Active = stats.info.ReadRate > activeReadRateMin
		infos = append(infos, stats.info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Count != infos[j].Count {
			return infos[i].Count > infos[j].Count
		}
		return infos[i].Domain < infos[j].Domain
	})

	return infos, nil
}
