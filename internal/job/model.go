package job

import (
	"fmt"
	"time"
)

// Offer is one job listing. Relational rows hold the structured fields;
// the vector store holds embedded chunks of the rendered document.
type Offer struct {
	ID             string `gorm:"primaryKey"`
	Title          string `gorm:"not null;index"`
	Company        string `gorm:"not null;index"`
	Location       string
	ContractType   string
	PostedDate     string
	EducationLevel string
	Skills         string
	Languages      string
	SalaryRange    string
	Description    string `gorm:"type:text"`
	URL            string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Offer) TableName() string {
	return "job_offers"
}

// Document renders the offer as the structured text that gets chunked and
// embedded. The layout keeps labeled fields first and the free-form
// description last, so short chunks still carry the key facts.
func (o *Offer) Document() string {
	return fmt.Sprintf(`Title: %s
Company: %s
Location: %s
Contract Type: %s
Posted Date: %s
Education Level: %s
Skills: %s
Languages: %s
Salary Range: %s

Description:
%s

URL: %s`,
		o.Title, o.Company, o.Location, o.ContractType, o.PostedDate,
		o.EducationLevel, o.Skills, o.Languages, o.SalaryRange,
		o.Description, o.URL)
}

// Metadata is the structured subset returned with search results.
type Metadata struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	ContractType   string `json:"contract_type"`
	EducationLevel string `json:"education_level"`
	Skills         string `json:"skills"`
	URL            string `json:"url"`
}

func (o *Offer) Metadata() Metadata {
	return Metadata{
		Title:          o.Title,
		Company:        o.Company,
		Location:       o.Location,
		ContractType:   o.ContractType,
		EducationLevel: o.EducationLevel,
		Skills:         o.Skills,
		URL:            o.URL,
	}
}

// SearchResult is one semantic search hit: the matched chunk text, the
// owning offer's metadata and the similarity score.
type SearchResult struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Score    float32  `json:"score"`
}
