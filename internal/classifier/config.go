package classifier

import "github.com/mailsift/mailsift/internal/model"

// DefaultCategories returns the default set of category definitions.
// Order matters: score ties keep the first-seen definition.
func DefaultCategories() []model.CategoryDefinition {
	return []model.CategoryDefinition{
		{
			ID:   "important",
			Name: "Important",
			ContentPatterns: []string{
				`\b(urgent|action\s*required|important|immediate attention|final notice)\b`,
				`\b(deadline|expir(es|ing)\s+(today|tomorrow|soon))\b`,
				`\b(security\s*alert|suspicious\s*(activity|sign.?in)|password\s*reset)\b`,
			},
			SenderPatterns: []string{
				`\b(admin|security|alerts?|support)@`,
			},
			Keywords: []string{"urgent", "important", "deadline", "asap"},
			Weight:   1.3,
		},
		{
			ID:   "financial",
			Name: "Financial",
			ContentPatterns: []string{
				`\b(statement|account\s*balance|transaction|direct\s*deposit)\b`,
				`\b(payment\s*(received|posted|confirmation)|transfer\s*(complete|initiated))\b`,
				`\b(credit\s*card|debit\s*card|interest\s*rate|overdraft)\b`,
			},
			SenderPatterns: []string{
				`\b(bank|chase|wellsfargo|citibank|citi|capitalone|amex|americanexpress|fidelity|schwab|vanguard|paypal|venmo)\b`,
				`\b(alerts?|statements?|notifications?)@.*\b(bank|credit|financial)\b`,
			},
			Keywords: []string{"statement", "balance", "deposit", "withdrawal"},
			Weight:   1.2,
		},
		{
			ID:   "bills",
			Name: "Bills & Utilities",
			ContentPatterns: []string{
				`\b(invoice|bill\s*(is\s*)?(ready|due)|amount\s*due|payment\s*due)\b`,
				`\b(auto.?pay|past\s*due|utility|electricity|water\s*bill|internet\s*bill)\b`,
			},
			SenderPatterns: []string{
				`\b(billing|invoices?|payments?)@`,
			},
			Keywords: []string{"invoice", "due", "bill", "autopay"},
			Weight:   1.1,
		},
		{
			ID:   "travel",
			Name: "Travel",
			ContentPatterns: []string{
				`\b(itinerary|boarding\s*pass|flight\s*(confirmation|status|delayed)|check.?in)\b`,
				`\b(reservation|booking\s*(confirmed|reference)|hotel|rental\s*car)\b`,
			},
			SenderPatterns: []string{
				`\b(airlines?|airways|delta|united|southwest|expedia|booking|airbnb|hotels?|marriott|hilton)\b`,
			},
			Keywords: []string{"itinerary", "flight", "reservation", "booking"},
			Weight:   1.1,
		},
		{
			ID:   "shopping",
			Name: "Shopping",
			ContentPatterns: []string{
				`\b(order\s*(confirmation|confirmed|shipped|delivered)|tracking\s*number)\b`,
				`\b(your\s*(package|order|item)|out\s*for\s*delivery|return\s*label|receipt)\b`,
			},
			SenderPatterns: []string{
				`\b(amazon|ebay|etsy|walmart|target|bestbuy|shopify)\b`,
				`\b(orders?|shipping|store)@`,
			},
			Keywords: []string{"order", "shipped", "delivery", "tracking", "receipt"},
			Weight:   1.0,
		},
		{
			ID:   "social",
			Name: "Social",
			ContentPatterns: []string{
				`\b(friend\s*request|mentioned\s*you|tagged\s*you|new\s*follower|liked\s*your)\b`,
				`\b(commented\s*on|sent\s*you\s*a\s*message|connection\s*request)\b`,
			},
			SenderPatterns: []string{
				`\b(facebook|instagram|twitter|linkedin|reddit|discord|tiktok|pinterest)\b`,
			},
			Keywords: []string{"follower", "mention", "comment", "connect"},
			Weight:   1.0,
		},
		{
			ID:   "marketing",
			Name: "Marketing",
			ContentPatterns: []string{
				`\b(unsubscribe|limited\s*time|special\s*offer|exclusive\s*(deal|offer)|act\s*now)\b`,
				`\b(\d+%\s*off|free\s*shipping|flash\s*sale|clearance|coupon|promo\s*code)\b`,
				`\b(newsletter|weekly\s*digest|this\s*week.?s)\b`,
			},
			SenderPatterns: []string{
				`\b(noreply|no.?reply|newsletter|marketing|promo(tions)?|offers|deals)@`,
			},
			Keywords: []string{"sale", "discount", "offer", "deal", "free"},
			Weight:   1.0,
		},
	}
}
