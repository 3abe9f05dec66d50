package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/research"
)

// List models
//
//	@Summary	Model catalog split into research and analysis models
//	@Tags		catalog
//	@Produce	json
//	@Success	200	{object}	ModelsResponse
//	@Router		/api/models [get]
func (s *Server) listModels(c echo.Context) error {
	return c.JSON(http.StatusOK, ModelsResponse{
		Research:        s.catalog.ResearchModels(),
		Analysis:        s.catalog.AnalysisModels(),
		DefaultResearch: s.models.Research,
		DefaultAnalysis: s.models.Analysis,
	})
}

// List stages
//
//	@Summary	Pipeline stages and journey stages
//	@Tags		catalog
//	@Produce	json
//	@Success	200	{object}	StagesResponse
//	@Router		/api/stages [get]
func (s *Server) listStages(c echo.Context) error {
	return c.JSON(http.StatusOK, StagesResponse{
		Pipeline: config.PipelineStages,
		Journey:  config.JourneyStages,
	})
}

// List request options
//
//	@Summary	Industries, business models and persona count bounds
//	@Tags		catalog
//	@Produce	json
//	@Success	200	{object}	OptionsResponse
//	@Router		/api/options [get]
func (s *Server) listOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, OptionsResponse{
		Industries:     config.Industries,
		BusinessModels: research.BusinessModels,
		MinItems:       s.pipeline.MinItems,
		MaxItems:       s.pipeline.MaxItems,
		DefaultItems:   s.pipeline.DefaultItems,
	})
}
