package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"tangle/internal/chunk"
	"tangle/internal/graph"
	"tangle/internal/ingest"
	"tangle/internal/services"
	"tangle/internal/store"
	"tangle/internal/surface"
	"tangle/internal/urn"
	"tangle/pkg/config"
	"tangle/pkg/errors"
	"tangle/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Initialize dependencies
	graphStore := store.New(driver)
	repo := graph.NewRepository(graphStore)
	engine := surface.NewEngine(repo)
	captureService := services.NewCaptureService(repo)
	importer := ingest.NewImporter(repo, chunk.New(cfg.MinChunkSize))

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-User-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes: every route runs behind caller identity resolution. The
	// upstream proxy authenticates and forwards the account id; here it
	// only gets converted to a user URN and threaded through explicitly.
	api := router.Group("/api")
	api.Use(callerIdentity())
	{
		// Surfacing
		api.GET("/surface/recent", func(c *gin.Context) {
			owner := caller(c)
			start := intQuery(c, "start", 0)
			count := intQuery(c, "count", 20)

			results, err := engine.GetAllMostRecent(c.Request.Context(), owner, start, count)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, results)
		})

		api.GET("/surface/usecase/:name", func(c *gin.Context) {
			owner := caller(c)
			offset := intQuery(c, "timezoneOffset", 0)

			results, err := engine.GetAllByUseCase(c.Request.Context(), owner, c.Param("name"), offset)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, results)
		})

		api.GET("/surface/node", func(c *gin.Context) {
			owner := caller(c)
			results, err := engine.GetNode(c.Request.Context(), owner, c.Query("id"))
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, results)
		})

		// Captures
		api.POST("/captures", func(c *gin.Context) {
			owner := caller(c)

			var req struct {
				PlainText string `json:"plainText" binding:"required"`
				HTML      string `json:"html"`
				ParentID  string `json:"parentId"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if req.HTML == "" {
				req.HTML = req.PlainText
			}

			var parent urn.URN
			if req.ParentID != "" {
				var err error
				if parent, err = urn.Parse(req.ParentID); err != nil {
					respondError(c, log, err)
					return
				}
			}

			capture, err := captureService.Create(c.Request.Context(), owner, req.PlainText, req.HTML, parent)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, capture)
		})

		api.PATCH("/captures/:id", func(c *gin.Context) {
			owner := caller(c)
			id, err := urn.Parse(c.Param("id"))
			if err != nil {
				respondError(c, log, err)
				return
			}

			var req struct {
				PlainText string `json:"plainText" binding:"required"`
				HTML      string `json:"html"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if req.HTML == "" {
				req.HTML = req.PlainText
			}

			capture, err := captureService.Edit(c.Request.Context(), owner, id, req.PlainText, req.HTML)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, capture)
		})

		api.POST("/captures/:id/archive", func(c *gin.Context) {
			owner := caller(c)
			id, err := urn.Parse(c.Param("id"))
			if err != nil {
				respondError(c, log, err)
				return
			}

			capture, err := captureService.Archive(c.Request.Context(), owner, id)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, capture)
		})

		api.GET("/captures/:id/tags", func(c *gin.Context) {
			owner := caller(c)
			id, err := urn.Parse(c.Param("id"))
			if err != nil {
				respondError(c, log, err)
				return
			}

			tags, err := repo.GetTags(c.Request.Context(), owner, id)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, tags)
		})

		api.GET("/captures/:id/sessions", func(c *gin.Context) {
			owner := caller(c)
			id, err := urn.Parse(c.Param("id"))
			if err != nil {
				respondError(c, log, err)
				return
			}

			sessions, err := repo.GetSessionsIncluding(c.Request.Context(), owner, id)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, sessions)
		})

		// Sessions
		api.POST("/sessions", func(c *gin.Context) {
			owner := caller(c)
			var req struct {
				Title string `json:"title"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			session, err := repo.CreateSession(c.Request.Context(), owner, req.Title)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, session)
		})

		api.GET("/sessions", func(c *gin.Context) {
			owner := caller(c)
			sessions, err := repo.GetRecentSessions(c.Request.Context(), owner, intQuery(c, "count", 20))
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, sessions)
		})

		api.GET("/sessions/:id", func(c *gin.Context) {
			owner := caller(c)
			id, err := urn.Parse(c.Param("id"))
			if err != nil {
				respondError(c, log, err)
				return
			}

			session, err := repo.GetSession(c.Request.Context(), owner, id)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, session)
		})

		api.PATCH("/sessions/:id", func(c *gin.Context) {
			owner := caller(c)
			id, err := urn.Parse(c.Param("id"))
			if err != nil {
				respondError(c, log, err)
				return
			}
			var req struct {
				Title string `json:"title"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			session, err := repo.EditSession(c.Request.Context(), owner, id, req.Title)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, session)
		})

		api.DELETE("/sessions/:id", func(c *gin.Context) {
			owner := caller(c)
			id, err := urn.Parse(c.Param("id"))
			if err != nil {
				respondError(c, log, err)
				return
			}
			if err := repo.DeleteSession(c.Request.Context(), owner, id); err != nil {
				respondError(c, log, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		// Users
		api.GET("/users/me", func(c *gin.Context) {
			owner := caller(c)
			user, err := repo.GetUser(c.Request.Context(), owner)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, user)
		})

		api.PUT("/users/me", func(c *gin.Context) {
			owner := caller(c)
			var req struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			user, err := repo.UpsertUser(c.Request.Context(), owner, req.Name, req.Email)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, user)
		})

		// Import
		api.POST("/import/evernote", func(c *gin.Context) {
			owner := caller(c)
			data, err := io.ReadAll(c.Request.Body)
			if err != nil || len(data) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
				return
			}

			note, imported, err := importer.ImportNote(c.Request.Context(), owner, data)
			if err != nil {
				respondError(c, log, err)
				return
			}
			status := http.StatusOK
			if imported {
				status = http.StatusCreated
			}
			c.JSON(status, gin.H{"note": note, "imported": imported})
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

const callerKey = "caller"

// callerIdentity resolves the authenticated account id forwarded by the
// proxy into a user URN. Requests without an identity are rejected here so
// downstream code can assume a caller.
func callerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-ID")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
			return
		}
		c.Set(callerKey, urn.NewUser(id))
		c.Next()
	}
}

func caller(c *gin.Context) urn.URN {
	return c.MustGet(callerKey).(urn.URN)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

// respondError maps the error taxonomy to HTTP statuses. Nothing below the
// transport layer catches store errors; they all land here.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.ErrorTypeMalformedURN:
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed identifier"})
	case errors.ErrorTypeNotImplemented:
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.ErrorTypeStoreUnavailable:
		log.Error("store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
