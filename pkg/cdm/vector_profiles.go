package cdm

import (
	"fmt"
	"strings"

	"github.com/loomworks/loom/pkg/vectorprofile"
	"github.com/loomworks/loom/pkg/vectorstore"
)

func init() {
	vectorprofile.Register("cdm.work.item.v1", &workItemNormalizer{})
	vectorprofile.Register("cdm.doc.item.v1", &docItemNormalizer{})
}

type workItemNormalizer struct{}

func (n *workItemNormalizer) Normalize(rec map[string]any) (vectorstore.Entry, string, bool) {
	payload, _ := rec["payload"].(map[string]any)
	if payload == nil {
		return vectorstore.Entry{}, "", false
	}
	cdmID := asString(payload["cdmId"])
	if cdmID == "" {
		cdmID = asString(payload["cdm_id"])
	}
	sourceSystem := asString(payload["sourceSystem"])
	if sourceSystem == "" {
		sourceSystem = asString(payload["source_system"])
	}
	summary := asString(payload["summary"])
	description := asString(payload["description"])
	if cdmID == "" && sourceSystem != "" {
		issueKey := asString(payload["sourceIssueKey"])
		if issueKey == "" {
			issueKey = asString(payload["issueKey"])
		}
		if issueKey != "" {
			cdmID = WorkItemID(sourceSystem, issueKey)
		}
	}
	if cdmID == "" || summary == "" {
		return vectorstore.Entry{}, "", false
	}
	text := strings.TrimSpace(strings.Join([]string{summary, description}, "\n\n"))
	entry := vectorstore.Entry{
		ProfileID:    "cdm.work.item.v1",
		NodeID:       cdmID,
		SourceFamily: sourceSystem,
		EntityKind:   "work.item",
		ContentText:  text,
		Metadata: map[string]any{
			"project": asString(payload["project"]),
			"source":  sourceSystem,
		},
		RawPayload: payload,
	}
	return entry, text, true
}

type docItemNormalizer struct{}

func (n *docItemNormalizer) Normalize(rec map[string]any) (vectorstore.Entry, string, bool) {
	payload, _ := rec["payload"].(map[string]any)
	if payload == nil {
		return vectorstore.Entry{}, "", false
	}
	cdmID := asString(payload["cdmId"])
	if cdmID == "" {
		cdmID = asString(payload["cdm_id"])
	}
	sourceSystem := asString(payload["sourceSystem"])
	if sourceSystem == "" {
		sourceSystem = asString(payload["source_system"])
	}
	title := asString(payload["title"])
	summary := asString(payload["summary"])
	if cdmID == "" && sourceSystem != "" {
		itemID := asString(payload["sourceItemId"])
		if itemID == "" {
			itemID = asString(payload["itemId"])
		}
		if itemID != "" {
			cdmID = DocItemID(sourceSystem, itemID)
		}
	}
	if cdmID == "" || title == "" {
		return vectorstore.Entry{}, "", false
	}
	text := strings.TrimSpace(strings.Join([]string{title, summary}, "\n\n"))
	entry := vectorstore.Entry{
		ProfileID:    "cdm.doc.item.v1",
		NodeID:       cdmID,
		SourceFamily: sourceSystem,
		EntityKind:   "doc.item",
		ContentText:  text,
		Metadata: map[string]any{
			"source": sourceSystem,
			"title":  title,
		},
		RawPayload: payload,
	}
	return entry, text, true
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return ""
	}
}
