package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Citation is a deduplicated source reference in a report.
type Citation struct {
	Title string `json:"title" bson:"title"`
	URL   string `json:"url"   bson:"url"`
}

// Report is a completed research report stored in MongoDB.
type Report struct {
	ID                primitive.ObjectID `json:"id"                           bson:"_id,omitempty"`
	Topic             string             `json:"topic"                        bson:"topic"`
	ReportType        string             `json:"report_type"                  bson:"report_type"`
	Language          string             `json:"language"                     bson:"language"`
	OtherInstructions string             `json:"other_instructions,omitempty" bson:"other_instructions,omitempty"`
	Markdown          string             `json:"markdown,omitempty"           bson:"markdown"`
	Citations         []Citation         `json:"citations"                    bson:"citations"`
	RunID             string             `json:"run_id"                       bson:"run_id"`
	RunStatus         string             `json:"run_status"                   bson:"run_status"`
	Model             string             `json:"model"                        bson:"model"`
	DurationMS        int64              `json:"duration_ms"                  bson:"duration_ms"`
	ArtifactObjectKey string             `json:"artifact_object_key"          bson:"artifact_object_key"`
	CreatedAt         time.Time          `json:"created_at"                   bson:"created_at"`
}
