package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	datasetadapter "genexpr/adapters/dataset"
	"genexpr/app"
	"genexpr/domain/stats"
	"genexpr/internal"
	"genexpr/internal/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMultiTest adjusts per-gene p-values for one correction method.
// Body: {"expression": [[...]], "status": [...], "method": "holm"}
func (s *Server) handleMultiTest(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ds, err := datasetadapter.ParseJSON(body, "request")
	if err != nil {
		s.writeError(w, err)
		return
	}

	tag := gjson.GetBytes(body, "method").String()
	if tag == "" {
		tag = string(stats.MethodHolm)
	}
	method, err := stats.ParseCorrectionMethod(tag)
	if err != nil {
		s.writeError(w, err)
		return
	}

	start := time.Now()
	res, err := s.multitest.ComputeAll(r.Context(), ds.Expression, ds.Status, method)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveCompute("multitest", time.Since(start), len(res.Tests))

	writeJSON(w, http.StatusOK, newMultiTestView(method, res))
}

// handleAnalyze runs the full analysis. Optional fields override the
// configured defaults: alpha, methods (array or comma list), top, correlate_top.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ds, err := datasetadapter.ParseJSON(body, "request")
	if err != nil {
		s.writeError(w, err)
		return
	}
	req, err := s.analysisRequest(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	start := time.Now()
	res, err := s.analysis.Run(r.Context(), ds, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveCompute("analyze", time.Since(start), res.Genes)
	s.metrics.ObserveRejections(res.Rejections)

	writeJSON(w, http.StatusOK, newAnalysisView(res))
}

func (s *Server) analysisRequest(body []byte) (app.AnalysisRequest, error) {
	req := app.AnalysisRequest{
		Alpha:        s.defaults.Alpha,
		Methods:      s.defaults.Methods,
		TopK:         s.defaults.TopGenes,
		CorrelateTop: s.defaults.CorrelateTop,
	}
	doc := gjson.ParseBytes(body)

	if v := doc.Get("alpha"); v.Exists() {
		if v.Type != gjson.Number {
			return req, errors.InvalidInput(fmt.Sprintf("alpha must be a number, got %s", v.Raw))
		}
		req.Alpha = v.Float()
	}
	if v := doc.Get("methods"); v.Exists() {
		var methods []stats.CorrectionMethod
		if v.IsArray() {
			for _, tag := range v.Array() {
				m, err := stats.ParseCorrectionMethod(tag.String())
				if err != nil {
					return req, err
				}
				methods = append(methods, m)
			}
		} else {
			parsed, err := stats.ParseCorrectionMethods(v.String())
			if err != nil {
				return req, err
			}
			methods = parsed
		}
		req.Methods = methods
	}
	if v := doc.Get("top"); v.Exists() {
		req.TopK = int(v.Int())
	}
	if v := doc.Get("correlate_top"); v.Exists() {
		req.CorrelateTop = int(v.Int())
	}
	return req, nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if len(body) == 0 {
		return nil, errors.InvalidInput("request body is empty")
	}
	return body, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.Classify(err)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[api] %s: %v", code, err)
	} else {
		s.logger.Debug("[api] %s: %v", code, err)
	}
	writeJSON(w, status, errorView{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.DefaultLogger.Warn("[api] response write error: %v", err)
	}
}
