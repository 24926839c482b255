package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/agentops/agent"
	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/llm"
	"github.com/jonwraymond/agentops/parallel"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

var errLLMDisabled = errors.New("llm client is not configured")

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	category := faults.CategoryOf(err)
	switch category {
	case faults.CategoryValidation:
		code = http.StatusBadRequest
	case faults.CategoryTimeoutError:
		code = http.StatusGatewayTimeout
	case faults.CategoryLLMAPIFailure, faults.CategoryNetworkError:
		code = http.StatusBadGateway
	case faults.CategoryConfiguration:
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, errorResponse{Error: err.Error(), Category: string(category)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, faults.DataValidation("body", nil, "invalid JSON body", faults.WithCause(err)))
		return false
	}
	return true
}

// generateHandler sends one prompt through the guarded LLM client.
func generateHandler(client llm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: errLLMDisabled.Error()})
			return
		}
		var req llm.Request
		if !decode(w, r, &req) {
			return
		}
		resp, err := client.Generate(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type analyzeRequest struct {
	Responses []surveyResponse `json:"responses"`
}

type invalidResponse struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type agentResult struct {
	AgentID    string `json:"agent_id"`
	Value      any    `json:"value,omitempty"`
	Action     string `json:"action,omitempty"`
	Error      string `json:"error,omitempty"`
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"duration_ms"`
}

type analyzeResponse struct {
	Total   int               `json:"total"`
	Valid   int               `json:"valid"`
	Invalid []invalidResponse `json:"invalid,omitempty"`
	Agents  []agentResult     `json:"agents"`
}

// analyzeHandler validates survey responses in batches, then runs the
// calculator and, when an LLM is configured, the comment summary agent.
func (a *app) analyzeHandler() http.HandlerFunc {
	validator := parallel.NewBatchProcessor(func(_ context.Context, r surveyResponse) (surveyResponse, error) {
		return r, r.validate()
	}, a.cfg.Batch.Parallel(a.logger))

	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if !decode(w, r, &req) {
			return
		}
		ctx := r.Context()

		out := analyzeResponse{Total: len(req.Responses)}
		valid := make([]surveyResponse, 0, len(req.Responses))
		for i, res := range validator.ProcessAll(ctx, req.Responses, nil) {
			if res.Err != nil {
				out.Invalid = append(out.Invalid, invalidResponse{Index: i, Error: res.Err.Error()})
				continue
			}
			valid = append(valid, res.Value)
		}
		out.Valid = len(valid)

		tasks := []agent.Task{{Agent: npsAgent(), Input: valid}}
		if a.llm != nil {
			tasks = append(tasks, agent.Task{Agent: summaryAgent(a.llm), Input: valid})
		}
		for _, o := range a.runner.RunAll(ctx, tasks) {
			ar := agentResult{
				AgentID:    o.AgentID,
				Value:      o.Value,
				Action:     string(o.Resolution.Action),
				Attempts:   o.Attempts,
				DurationMS: o.Duration.Milliseconds(),
			}
			if o.Err != nil {
				ar.Error = o.Err.Error()
			}
			out.Agents = append(out.Agents, ar)
		}
		writeJSON(w, http.StatusOK, out)
	}
}
