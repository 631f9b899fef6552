package resume

import (
	"time"

	"github.com/pathfinder-ai/career-backend/internal/job"
)

// Resume is one uploaded resume: the original filename and the full
// extracted text. Embedded chunks live in the vector store under the
// resume's ID.
type Resume struct {
	ID        string `gorm:"primaryKey"`
	FileName  string `gorm:"not null"`
	Text      string `gorm:"type:text"`
	CreatedAt time.Time
}

func (Resume) TableName() string {
	return "resumes"
}

// Report is the full response to a resume upload: the model's analysis
// plus job listings matched against the resume text.
type Report struct {
	Summary         string             `json:"summary"`
	Skills          []string           `json:"skills"`
	Recommendations []string           `json:"recommendations"`
	JobMatches      []job.SearchResult `json:"job_matches"`
	ResumeID        string             `json:"resume_id"`
}

// MatchReport scores one resume against one job description.
type MatchReport struct {
	MatchScore      float64  `json:"matchScore"`
	MatchingSkills  []string `json:"matchingSkills"`
	MissingSkills   []string `json:"missingSkills"`
	Recommendations []string `json:"recommendations"`
}
