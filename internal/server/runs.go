package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/report"
	"github.com/mohammad-safakhou/resonance/internal/runtime"
)

const mimeMarkdown = "text/markdown; charset=utf-8"

// Create run
//
//	@Summary		Run the research pipeline synchronously
//	@Description	Validates the request, runs every stage and returns the result. format=markdown returns the rendered report.
//	@Tags			runs
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RunRequest	true	"Client request"
//	@Param			format	query		string		false	"json (default) or markdown"
//	@Success		200		{object}	pipeline.Result
//	@Failure		400		{object}	HTTPError
//	@Failure		401		{object}	HTTPError
//	@Failure		403		{object}	HTTPError
//	@Router			/api/runs [post]
func (s *Server) createRun(c echo.Context) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format != "" && format != "json" && format != "markdown" {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json or markdown")
	}

	var body RunRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req := body.ClientRequest.Normalize(s.pipeline.DefaultItems)
	if err := req.Validate(s.pipeline.MinItems, s.pipeline.MaxItems); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	opts := runtime.RunOptions{AnalysisModel: strings.TrimSpace(body.AnalysisModel)}
	if body.Budget != nil {
		opts.Budget = *body.Budget
	}
	p, err := s.factory(opts)
	if err != nil {
		if errors.Is(err, runtime.ErrInvalidOptions) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	subject, _ := runtime.SubjectFromContext(c.Request().Context())
	observers := []pipeline.Observer{s.runs.observer(req.ClientName, subject)}
	if s.progress != nil {
		observers = append(observers, s.progress.Observe)
	}
	res := p.Run(c.Request().Context(), req, pipeline.Tee(observers...))
	s.runs.finish(res, subject)

	if s.progress != nil {
		if err := s.progress.Completed(context.WithoutCancel(c.Request().Context()), res); err != nil {
			s.logger.Warn("publish run completion failed", zap.String("run_id", res.RunID), zap.Error(err))
		}
	}
	s.logger.Info("run finished",
		zap.String("run_id", res.RunID),
		zap.String("client", req.ClientName),
		zap.Bool("aborted", res.Failed()),
		zap.Float64("cost", res.Usage.TotalCost))

	if format == "markdown" {
		return c.Blob(http.StatusOK, mimeMarkdown, []byte(report.Markdown(res, s.now())))
	}
	return c.JSON(http.StatusOK, res)
}

// List runs
//
//	@Summary	Runs tracked by this process, newest first
//	@Tags		runs
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}	RunStatus
//	@Router		/api/runs [get]
func (s *Server) listRuns(c echo.Context) error {
	return c.JSON(http.StatusOK, s.runs.list())
}

// Get run
//
//	@Summary	Live stage outcomes of one run
//	@Tags		runs
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Run ID"
//	@Produce	json
//	@Success	200	{object}	RunStatus
//	@Failure	404	{object}	HTTPError
//	@Router		/api/runs/{id} [get]
func (s *Server) getRun(c echo.Context) error {
	st, ok := s.runs.get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, st)
}
