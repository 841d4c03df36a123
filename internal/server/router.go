package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aviaryworks/aviary/internal/ledger"
)

const principalContextKey = "aviary_principal"

var (
	errMissingTokenValidator = errors.New("token validator dependency required")
	errMissingLedgerService  = errors.New("ledger service dependency required")
	errInvalidAuthorization  = errors.New("authorization header missing or invalid")
)

// TokenValidator resolves a bearer token to an authenticated principal.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// Dependencies wires the HTTP surface to the ledger.
type Dependencies struct {
	Tokens TokenValidator
	Ledger *ledger.Service
	Logger *zap.Logger
}

// NewHTTPHandler builds the gin router. Reads are public; every mutating
// route requires a bearer token naming the acting principal.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errMissingTokenValidator
	}
	if deps.Ledger == nil {
		return nil, errMissingLedgerService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens: deps.Tokens,
		ledger: deps.Ledger,
		logger: logger,
	}

	router.GET("/healthz", handler.handleHealthz)
	router.GET("/tweets", handler.handleLatestTweets)
	router.GET("/accounts/:account/tweets", handler.handleLatestTweetsOf)
	router.GET("/tweets/:id/comments", handler.handleLatestComments)
	router.GET("/events", handler.handleEvents)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/tweets", handler.handlePostTweet)
	protected.POST("/tweets/:id/likes", handler.handleLikeTweet)
	protected.POST("/tweets/:id/comments", handler.handleCommentTweet)
	protected.POST("/messages", handler.handleSendMessage)
	protected.GET("/messages", handler.handleListMessages)
	protected.POST("/follows", handler.handleFollow)
	protected.POST("/delegations", handler.handleGrantDelegation)
	protected.DELETE("/delegations/:operator", handler.handleRevokeDelegation)

	return router, nil
}

type httpHandler struct {
	tokens TokenValidator
	ledger *ledger.Service
	logger *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	principal, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(principalContextKey, principal)
	c.Next()
}

func (h *httpHandler) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
