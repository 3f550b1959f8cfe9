package rules

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/mailsift/mailsift/internal/model"
)

// ExportTarget identifies a provider automation format rules can be
// translated into.
type ExportTarget string

// Export target constants.
const (
	ExportGmail ExportTarget = "gmail"
	ExportSieve ExportTarget = "sieve"
)

// ExportRules translates the stored rule set into a provider automation
// format. The conversion is lossy by design: only from/to/subject criteria
// and archive/markRead/delete/label actions carry over, and anything the
// target cannot express is silently dropped. Rules left with no exportable
// criteria or actions are omitted entirely.
func (e *Engine) ExportRules(ctx context.Context, target ExportTarget) ([]byte, error) {
	rules, err := e.store.GetRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	exportable := make([]exportRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		er := toExportRule(rule)
		if er.empty() {
			continue
		}
		exportable = append(exportable, er)
	}

	switch target {
	case ExportGmail:
		return renderGmail(exportable)
	case ExportSieve:
		return renderSieve(exportable), nil
	default:
		return nil, fmt.Errorf("unsupported export target: %s", target)
	}
}

// exportRule is the provider-expressible subset of a rule.
type exportRule struct {
	name     string
	from     string
	to       string
	subject  string
	label    string
	archive  bool
	markRead bool
	remove   bool
}

func (er exportRule) empty() bool {
	hasCriteria := er.from != "" || er.to != "" || er.subject != ""
	hasAction := er.archive || er.markRead || er.remove || er.label != ""
	return !hasCriteria || !hasAction
}

func toExportRule(rule model.Rule) exportRule {
	er := exportRule{name: rule.Name}

	for _, cond := range rule.Conditions {
		// Only substring-style criteria survive the translation.
		switch cond.Operator {
		case model.OpContains, model.OpEquals, model.OpStartsWith, model.OpEndsWith:
		default:
			continue
		}
		switch cond.Field {
		case model.FieldFrom:
			er.from = cond.Value
		case model.FieldTo:
			er.to = cond.Value
		case model.FieldSubject:
			er.subject = cond.Value
		default:
			// No equivalent in provider filter formats.
		}
	}

	for _, action := range rule.Actions {
		switch action.Type {
		case model.ActionArchive:
			er.archive = true
		case model.ActionMarkRead:
			er.markRead = true
		case model.ActionDelete:
			er.remove = true
		case model.ActionLabel:
			er.label = action.Value
		default:
			// move/markUnread/categorize have no provider equivalent.
		}
	}

	return er
}

// Gmail filter export uses the Atom feed format the Gmail importer accepts.

type gmailFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Xmlns   string       `xml:"xmlns,attr"`
	Apps    string       `xml:"xmlns:apps,attr"`
	Title   string       `xml:"title"`
	Entries []gmailEntry `xml:"entry"`
}

type gmailEntry struct {
	Category   gmailCategory   `xml:"category"`
	Title      string          `xml:"title"`
	Properties []gmailProperty `xml:"apps:property"`
}

type gmailCategory struct {
	Term string `xml:"term,attr"`
}

type gmailProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func renderGmail(rules []exportRule) ([]byte, error) {
	feed := gmailFeed{
		Xmlns: "http://www.w3.org/2005/Atom",
		Apps:  "http://schemas.google.com/apps/2006",
		Title: "Mail Filters",
	}

	for _, er := range rules {
		entry := gmailEntry{
			Category: gmailCategory{Term: "filter"},
			Title:    er.name,
		}
		addProp := func(name, value string) {
			entry.Properties = append(entry.Properties, gmailProperty{Name: name, Value: value})
		}

		if er.from != "" {
			addProp("from", er.from)
		}
		if er.to != "" {
			addProp("to", er.to)
		}
		if er.subject != "" {
			addProp("subject", er.subject)
		}
		if er.archive {
			addProp("shouldArchive", "true")
		}
		if er.markRead {
			addProp("shouldMarkAsRead", "true")
		}
		if er.remove {
			addProp("shouldTrash", "true")
		}
		if er.label != "" {
			addProp("label", er.label)
		}

		feed.Entries = append(feed.Entries, entry)
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render gmail filters: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func renderSieve(rules []exportRule) []byte {
	var b strings.Builder
	b.WriteString("require [\"fileinto\", \"imap4flags\"];\n")

	for _, er := range rules {
		b.WriteString("\n# ")
		b.WriteString(er.name)
		b.WriteString("\n")

		var tests []string
		if er.from != "" {
			tests = append(tests, fmt.Sprintf("header :contains \"from\" %q", er.from))
		}
		if er.to != "" {
			tests = append(tests, fmt.Sprintf("header :contains \"to\" %q", er.to))
		}
		if er.subject != "" {
			tests = append(tests, fmt.Sprintf("header :contains \"subject\" %q", er.subject))
		}

		if len(tests) == 1 {
			b.WriteString("if " + tests[0] + " {\n")
		} else {
			b.WriteString("if allof (" + strings.Join(tests, ", ") + ") {\n")
		}

		if er.remove {
			b.WriteString("    discard;\n")
		}
		if er.archive {
			b.WriteString("    fileinto \"Archive\";\n")
		}
		if er.label != "" {
			b.WriteString(fmt.Sprintf("    fileinto %q;\n", er.label))
		}
		if er.markRead {
			b.WriteString("    setflag \"\\\\Seen\";\n")
		}

		b.WriteString("}\n")
	}

	return []byte(b.String())
}
