package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/agentops/agent"
	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/llm"
)

// surveyResponse is one NPS survey answer.
type surveyResponse struct {
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

func (r surveyResponse) validate() error {
	if r.Score < 0 || r.Score > 10 {
		return faults.DataValidation("score", r.Score, "score must be between 0 and 10",
			faults.WithComponent("survey_validator"))
	}
	return nil
}

// npsScore is the output of the calculator agent.
type npsScore struct {
	NPS        float64 `json:"nps"`
	Promoters  int     `json:"promoters"`
	Passives   int     `json:"passives"`
	Detractors int     `json:"detractors"`
	Total      int     `json:"total"`
}

func calculateNPS(responses []surveyResponse) (npsScore, error) {
	if len(responses) == 0 {
		return npsScore{}, faults.DataValidation("responses", 0, "no valid responses to score",
			faults.WithComponent(agent.Component(agentNPSCalculator)))
	}
	var s npsScore
	for _, r := range responses {
		switch {
		case r.Score >= 9:
			s.Promoters++
		case r.Score >= 7:
			s.Passives++
		default:
			s.Detractors++
		}
	}
	s.Total = len(responses)
	s.NPS = float64(s.Promoters-s.Detractors) * 100 / float64(s.Total)
	return s, nil
}

// Agent ids.
const (
	agentNPSCalculator  = "nps_calculator"
	agentCommentSummary = "comment_summary"
)

// maxSummaryComments bounds the prompt built by the summary agent.
const maxSummaryComments = 200

func npsAgent() agent.Agent {
	return agent.NewFunc(agentNPSCalculator, func(_ context.Context, input any) (any, error) {
		return calculateNPS(input.([]surveyResponse))
	})
}

type commentSummary struct {
	Summary  string `json:"summary"`
	Comments int    `json:"comments"`
	Fallback bool   `json:"fallback"`
	Cached   bool   `json:"cached"`
}

func summaryAgent(client llm.Client) agent.Agent {
	return agent.NewFunc(agentCommentSummary, func(ctx context.Context, input any) (any, error) {
		var comments []string
		for _, r := range input.([]surveyResponse) {
			if c := strings.TrimSpace(r.Comment); c != "" {
				comments = append(comments, c)
			}
			if len(comments) == maxSummaryComments {
				break
			}
		}
		if len(comments) == 0 {
			return commentSummary{}, nil
		}

		var sb strings.Builder
		sb.WriteString("Summarize the main themes of these NPS survey comments in a few sentences.\n\n")
		for _, c := range comments {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
		resp, err := client.Generate(ctx, llm.Request{
			System: "You are an analyst writing customer feedback reports.",
			Prompt: sb.String(),
		})
		if err != nil {
			return nil, err
		}
		return commentSummary{
			Summary:  resp.Content,
			Comments: len(comments),
			Fallback: resp.Fallback,
			Cached:   resp.Cached,
		}, nil
	})
}
