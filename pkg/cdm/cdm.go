// Package cdm defines the canonical data model shared by semantic
// connectors, sinks, and the enrichment pipeline. Model IDs are stable
// identifiers; records mapped into a model carry its column set.
package cdm

import "fmt"

// CDM model IDs.
const (
	// Work domain (issue trackers)
	ModelWorkProject = "cdm.work.project"
	ModelWorkUser    = "cdm.work.user"
	ModelWorkItem    = "cdm.work.item"
	ModelWorkComment = "cdm.work.comment"
	ModelWorkLog     = "cdm.work.worklog"

	// Docs domain (wikis, document stores)
	ModelDocSpace    = "cdm.doc.space"
	ModelDocItem     = "cdm.doc.item"
	ModelDocRevision = "cdm.doc.revision"
	ModelDocLink     = "cdm.doc.link"
)

// WorkProjectID builds the canonical ID for a work project.
func WorkProjectID(sourceSystem, projectKey string) string {
	return fmt.Sprintf("cdm:work:project:%s:%s", sourceSystem, projectKey)
}

// WorkUserID builds the canonical ID for a work user.
func WorkUserID(sourceSystem, accountID string) string {
	return fmt.Sprintf("cdm:work:user:%s:%s", sourceSystem, accountID)
}

// WorkItemID builds the canonical ID for a work item.
func WorkItemID(sourceSystem, issueKey string) string {
	return fmt.Sprintf("cdm:work:item:%s:%s", sourceSystem, issueKey)
}

// WorkCommentID builds the canonical ID for a work comment.
func WorkCommentID(sourceSystem, issueKey, commentID string) string {
	return fmt.Sprintf("cdm:work:comment:%s:%s:%s", sourceSystem, issueKey, commentID)
}

// DocSpaceID builds the canonical ID for a doc space.
func DocSpaceID(sourceSystem, spaceID string) string {
	return fmt.Sprintf("cdm:doc:space:%s:%s", sourceSystem, spaceID)
}

// DocItemID builds the canonical ID for a doc item.
func DocItemID(sourceSystem, itemID string) string {
	return fmt.Sprintf("cdm:doc:item:%s:%s", sourceSystem, itemID)
}

// DocRevisionID builds the canonical ID for a doc revision.
func DocRevisionID(sourceSystem, revisionID string) string {
	return fmt.Sprintf("cdm:doc:revision:%s:%s", sourceSystem, revisionID)
}

// ProfileSuffix derives the vector profile suffix for a model ID, e.g.
// "cdm.work.item" -> "cdm.work.item.v1".
func ProfileSuffix(modelID string) string {
	if modelID == "" {
		return ""
	}
	return modelID + ".v1"
}
