package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spanqa/spanqa/api"
	"github.com/spanqa/spanqa/batch"
	"github.com/spanqa/spanqa/envconfig"
	"github.com/spanqa/spanqa/version"
	"github.com/spanqa/spanqa/vocab"
)

// Server feeds padded batches over HTTP so a training job can pull
// them from another process. Each open stream wraps one generator;
// generators are single-owner, so all access is serialized.
type Server struct {
	vocab  *vocab.Vocabulary
	chars  *vocab.CharTable
	shared *vocab.SharedIndex

	mu      sync.Mutex
	streams map[string]*batch.Generator
}

func NewServer(v *vocab.Vocabulary, chars *vocab.CharTable, shared *vocab.SharedIndex) *Server {
	if chars == nil {
		chars = vocab.DefaultCharTable()
	}
	return &Server{
		vocab:   v,
		chars:   chars,
		shared:  shared,
		streams: make(map[string]*batch.Generator),
	}
}

func (s *Server) CreateStreamHandler(c *gin.Context) {
	var req api.StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if req.ContextPath == "" || req.QuestionPath == "" || req.AnswerPath == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "context_path, question_path and answer_path are required"})
		return
	}

	cfg := batch.DefaultConfig()
	if req.BatchSize > 0 {
		cfg.BatchSize = req.BatchSize
	}
	if req.ContextLen > 0 {
		cfg.ContextLen = req.ContextLen
	}
	if req.QuestionLen > 0 {
		cfg.QuestionLen = req.QuestionLen
	}
	if req.WordLen > 0 {
		cfg.WordLen = req.WordLen
	}
	if req.DiscardLong != nil {
		cfg.DiscardLong = *req.DiscardLong
	}

	var opts []batch.Option
	if req.Seed != nil {
		opts = append(opts, batch.WithSeed(*req.Seed))
	}
	if req.UUIDPath != "" {
		opts = append(opts, batch.WithUUIDFile(req.UUIDPath))
	}

	gen, err := batch.Open(cfg, s.vocab, s.chars, s.shared, req.ContextPath, req.QuestionPath, req.AnswerPath, opts...)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.streams[id] = gen
	s.mu.Unlock()

	slog.Info("opened batch stream", "id", id, "context", req.ContextPath)
	c.JSON(http.StatusOK, api.StreamResponse{ID: id})
}

func (s *Server) NextBatchHandler(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	gen, ok := s.streams[id]
	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no such stream"})
		return
	}

	b, err := gen.Next()
	if errors.Is(err, io.EOF) {
		delete(s.streams, id)
		if err := gen.Close(); err != nil {
			slog.Warn("closing exhausted stream", "id", id, "error", err)
		}
		c.JSON(http.StatusOK, api.NextResponse{Done: true})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.NextResponse{Batch: b})
}

func (s *Server) CloseStreamHandler(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	gen, ok := s.streams[id]
	delete(s.streams, id)
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no such stream"})
		return
	}

	if err := gen.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (s *Server) Routes() *gin.Engine {
	config := cors.DefaultConfig()
	config.AllowWildcard = true
	config.AllowOrigins = envconfig.AllowOrigins

	r := gin.Default()
	r.Use(cors.New(config))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "spanqa is running")
	})
	r.GET("/api/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version})
	})

	r.POST("/api/streams", s.CreateStreamHandler)
	r.POST("/api/streams/:id/next", s.NextBatchHandler)
	r.DELETE("/api/streams/:id", s.CloseStreamHandler)

	return r
}

// Serve runs the batch feed on the listener until it fails.
func Serve(ln net.Listener, v *vocab.Vocabulary, chars *vocab.CharTable, shared *vocab.SharedIndex) error {
	s := NewServer(v, chars, shared)

	slog.Info("listening", "addr", ln.Addr())
	srv := &http.Server{
		Handler: s.Routes(),
	}
	return srv.Serve(ln)
}
