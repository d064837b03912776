package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ContentGenerator runs a single standalone completion, no chat history.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type ResumeAnalysis struct {
	MatchScore   int      `json:"matchScore"`
	Strengths    string   `json:"strengths"`
	Improvements []string `json:"improvements"`
}

type keySkills struct {
	TechnicalSkills []string `json:"technicalSkills"`
	SoftSkills      []string `json:"softSkills"`
}

// AgentService scores a resume against a job description with a two-stage
// prompt pipeline: extract the key skills from the job description, then
// judge the resume against them.
type AgentService struct {
	gen ContentGenerator
}

func NewAgentService(gen ContentGenerator) *AgentService {
	return &AgentService{gen: gen}
}

func (s *AgentService) Analyze(ctx context.Context, resumeText, jobDescriptionText string) (*ResumeAnalysis, error) {
	if strings.TrimSpace(resumeText) == "" || strings.TrimSpace(jobDescriptionText) == "" {
		return nil, newError(ErrorInvalidInput, "missing_resume_or_job_description", nil)
	}

	skills, err := s.extractKeySkills(ctx, jobDescriptionText)
	if err != nil {
		return nil, err
	}

	return s.scoreResume(ctx, resumeText, skills)
}

func (s *AgentService) extractKeySkills(ctx context.Context, jobDescriptionText string) (*keySkills, error) {
	prompt := fmt.Sprintf(`Act as an expert technical recruiter. Analyze the following job description and extract the 5 most important technical skills and 3 most important soft skills.
Return the result ONLY as a JSON object with two keys: "technicalSkills" and "softSkills".
Job Description: """%s"""`, jobDescriptionText)

	raw, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, newError(ErrorAIService, generateFailureReason(err), err)
	}

	var skills keySkills
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &skills); err != nil {
		return nil, newError(ErrorAIService, "malformed_skills_response", err)
	}
	return &skills, nil
}

func (s *AgentService) scoreResume(ctx context.Context, resumeText string, skills *keySkills) (*ResumeAnalysis, error) {
	technical, _ := json.Marshal(skills.TechnicalSkills)
	soft, _ := json.Marshal(skills.SoftSkills)

	prompt := fmt.Sprintf(`Act as a senior career coach. You are analyzing a candidate's resume against the key requirements for a job.

Key Technical Skills Required: %s
Key Soft Skills Required: %s

Candidate's Resume: """%s"""

Perform the following analysis and return ONLY a JSON object with the keys "matchScore", "strengths", and "improvements":
1. "matchScore": An overall score from 0 to 100 on how well the resume matches the job requirements.
2. "strengths": A short paragraph explaining what the resume does well in relation to the job.
3. "improvements": A list of 3 concrete, actionable suggestions for how the candidate could improve their resume to better match this specific job.`,
		technical, soft, resumeText)

	raw, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, newError(ErrorAIService, generateFailureReason(err), err)
	}

	var analysis ResumeAnalysis
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &analysis); err != nil {
		return nil, newError(ErrorAIService, "malformed_analysis_response", err)
	}
	return &analysis, nil
}

// stripJSONFences removes the markdown code fences models tend to wrap
// JSON output in.
func stripJSONFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
