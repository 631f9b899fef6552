package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

const analyzeSystemPrompt = "You are an expert resume analyzer and career advisor. " +
	"You have been given a candidate's resume text, and you will speak directly to the candidate. " +
	"1) Provide a short summary of the candidate's profile in the second person, focusing on key strengths. " +
	"2) Extract the candidate's skills (list them as an array of strings). " +
	"3) Provide at least three concrete suggestions for improving the resume. " +
	"4) Recommend at least three suitable job positions that align with the candidate's background. " +
	"Return your answer as valid JSON with exactly these four fields: " +
	"'summary' (string), 'skills' (array of strings), 'recommendations' (array of strings), and 'jobRecommendations' (array of strings)."

const preferencesSystemPrompt = "You are an expert career advisor. Based on the resume provided, " +
	"generate 5 specific job search queries that would help find relevant job positions for this " +
	"candidate. Consider their skills, experience, education, and any implied career interests. " +
	"Format your response as a JSON array of strings."

const matchSystemPrompt = "You are an expert recruitment advisor. Compare the resume with the job " +
	"description and evaluate how well the candidate matches the job requirements. Provide a match " +
	"score on a scale of 0-100, identify matching skills, missing skills, and recommendations for " +
	"improving the candidacy. Return a JSON object with these fields: matchScore, matchingSkills, " +
	"missingSkills, and recommendations."

// JSONGenerator produces a JSON-constrained model response.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

// Analyzer turns resume text into structured career insights via the
// language model. Partial or malformed model output degrades to safe
// defaults instead of failing the request.
type Analyzer struct {
	gen    JSONGenerator
	logger *slog.Logger
}

func NewAnalyzer(gen JSONGenerator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		gen:    gen,
		logger: logger.With("component", "resume_analyzer"),
	}
}

// Analyze extracts a profile summary, skills and improvement suggestions
// from the resume text.
func (a *Analyzer) Analyze(ctx context.Context, resumeText string) (*Report, error) {
	raw, err := a.gen.GenerateJSON(ctx, analyzeSystemPrompt, resumeText)
	if err != nil {
		return nil, fmt.Errorf("analyze resume: %w", err)
	}

	// Models have been seen emitting both casings for the suggestions key.
	var parsed struct {
		Summary            string   `json:"summary"`
		Skills             []string `json:"skills"`
		Recommendations    []string `json:"recommendations"`
		RecommendationsAlt []string `json:"Recommendations"`
		JobRecommendations []string `json:"jobRecommendations"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	report := &Report{
		Summary:         parsed.Summary,
		Skills:          parsed.Skills,
		Recommendations: parsed.Recommendations,
	}
	if len(report.Recommendations) == 0 {
		report.Recommendations = parsed.RecommendationsAlt
	}

	if report.Summary == "" {
		a.logger.Warn("analysis missing summary, filling default")
		report.Summary = "Could not extract summary from resume."
	}
	if report.Skills == nil {
		report.Skills = []string{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}
	return report, nil
}

// Preferences derives job search queries from the resume text.
func (a *Analyzer) Preferences(ctx context.Context, resumeText string) ([]string, error) {
	raw, err := a.gen.GenerateJSON(ctx, preferencesSystemPrompt, resumeText)
	if err != nil {
		return nil, fmt.Errorf("extract preferences: %w", err)
	}

	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		return nil, fmt.Errorf("parse preferences: %w", err)
	}
	return queries, nil
}

// Match scores the resume against a job description.
func (a *Analyzer) Match(ctx context.Context, resumeText, jobDescription string) (*MatchReport, error) {
	prompt := fmt.Sprintf("Resume:\n%s\n\nJob Description:\n%s", resumeText, jobDescription)
	raw, err := a.gen.GenerateJSON(ctx, matchSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("match resume: %w", err)
	}

	var report MatchReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("parse match report: %w", err)
	}
	if report.MatchingSkills == nil {
		report.MatchingSkills = []string{}
	}
	if report.MissingSkills == nil {
		report.MissingSkills = []string{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}
	return &report, nil
}
