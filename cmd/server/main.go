// Command server exposes a trained n-gram model's Predict/Generate
// surface over HTTP. Like the library's other external collaborators
// (CLI flags, corpus discovery), the transport is kept deliberately
// thin: it holds no scoring logic of its own.
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"suffixlm/internal/lm"
)

// engineServer is a thin gin wrapper around a loaded *lm.Model, grounded
// on the teacher's "constructor holds the core service" shape.
type engineServer struct {
	model  *lm.Model
	logger *zap.Logger
}

func newEngineServer(model *lm.Model, logger *zap.Logger) *engineServer {
	return &engineServer{model: model, logger: logger}
}

func (s *engineServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		start := time.Now()

		c.Next()

		s.logger.Info("handled request",
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *engineServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": lm.Version})
}

type predictRequest struct {
	Context string `json:"context" binding:"required"`
	K       int    `json:"k"`
}

type predictResponse struct {
	Tokens []string  `json:"tokens"`
	Scores []float64 `json:"scores"`
}

func (s *engineServer) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.K <= 0 {
		req.K = lm.TopKForGeneration
	}

	slots := s.model.Predict(req.Context, req.K)
	resp := predictResponse{
		Tokens: make([]string, len(slots)),
		Scores: make([]float64, len(slots)),
	}
	for i, slot := range slots {
		resp.Tokens[i] = s.model.Vocab.TokenOf(slot.ID)
		resp.Scores[i] = slot.Score
	}
	c.JSON(http.StatusOK, resp)
}

type generateRequest struct {
	Input       string  `json:"input" binding:"required"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (s *engineServer) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = lm.HardLengthCap
	}

	text := s.model.Generate(req.Input, req.MaxTokens, req.Temperature)
	c.JSON(http.StatusOK, generateResponse{Text: text})
}

func (s *engineServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.GET("/healthz", s.handleHealthz)
	r.POST("/predict", s.handlePredict)
	r.POST("/generate", s.handleGenerate)
	return r
}

func main() {
	var modelPrefix = flag.String("model", "model", "Model file prefix to load")
	var maxN = flag.Int("max-n", 3, "Maximum n-gram order of the loaded model")
	var addr = flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	model, err := lm.LoadModel(*modelPrefix, *maxN, logger)
	if err != nil {
		logger.Fatal("failed to load model", zap.String("prefix", *modelPrefix), zap.Error(err))
	}

	srv := newEngineServer(model, logger)
	logger.Info("serving model", zap.String("prefix", *modelPrefix), zap.String("addr", *addr))
	if err := srv.routes().Run(*addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
