package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aviaryworks/aviary/internal/ledger"
)

type postTweetPayload struct {
	Content    string `json:"content"`
	OnBehalfOf string `json:"on_behalf_of"`
}

type sendMessagePayload struct {
	Receiver   string `json:"receiver"`
	Content    string `json:"content"`
	OnBehalfOf string `json:"on_behalf_of"`
}

type commentPayload struct {
	Content string `json:"content"`
}

type followPayload struct {
	Followed string `json:"followed"`
}

type delegationPayload struct {
	Operator string `json:"operator"`
}

type tweetView struct {
	ID               uint64 `json:"id"`
	Author           string `json:"author"`
	Content          string `json:"content"`
	CreatedAtSeconds int64  `json:"created_at_s"`
	LikeCount        uint64 `json:"like_count"`
	CommentCount     uint64 `json:"comment_count"`
}

type commentView struct {
	ID               uint64 `json:"id"`
	TweetID          uint64 `json:"tweet_id"`
	Author           string `json:"author"`
	Content          string `json:"content"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

type messageView struct {
	ID               uint64 `json:"id"`
	Sender           string `json:"sender"`
	Receiver         string `json:"receiver"`
	Content          string `json:"content"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

type eventView struct {
	ID                string          `json:"id"`
	Kind              string          `json:"kind"`
	OccurredAtSeconds int64           `json:"occurred_at_s"`
	Payload           json.RawMessage `json:"payload"`
}

func (h *httpHandler) handlePostTweet(c *gin.Context) {
	principal, ok := h.actingPrincipal(c)
	if !ok {
		return
	}
	var request postTweetPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	var (
		id  uint64
		err error
	)
	if owner, delegated := delegatedOwner(c, request.OnBehalfOf, principal); delegated {
		if owner == "" {
			return
		}
		id, err = h.ledger.PostAsDelegate(c.Request.Context(), owner, principal, request.Content)
	} else {
		id, err = h.ledger.PostAsSelf(c.Request.Context(), principal, request.Content)
	}
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *httpHandler) handleLikeTweet(c *gin.Context) {
	principal, ok := h.actingPrincipal(c)
	if !ok {
		return
	}
	tweetID, ok := tweetIDParam(c)
	if !ok {
		return
	}
	if err := h.ledger.Like(c.Request.Context(), tweetID, principal); err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleCommentTweet(c *gin.Context) {
	principal, ok := h.actingPrincipal(c)
	if !ok {
		return
	}
	tweetID, ok := tweetIDParam(c)
	if !ok {
		return
	}
	var request commentPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	id, err := h.ledger.Comment(c.Request.Context(), tweetID, principal, request.Content)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *httpHandler) handleSendMessage(c *gin.Context) {
	principal, ok := h.actingPrincipal(c)
	if !ok {
		return
	}
	var request sendMessagePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	receiver, err := ledger.NewPrincipalID(request.Receiver)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_principal"})
		return
	}

	var id uint64
	if owner, delegated := delegatedOwner(c, request.OnBehalfOf, principal); delegated {
		if owner == "" {
			return
		}
		id, err = h.ledger.SendAsDelegate(c.Request.Context(), owner, principal, receiver, request.Content)
	} else {
		id, err = h.ledger.SendAsSelf(c.Request.Context(), principal, receiver, request.Content)
	}
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *httpHandler) handleListMessages(c *gin.Context) {
	principal, ok := h.actingPrincipal(c)
	if !ok {
		return
	}
	messages := h.ledger.MessagesOf(principal)
	views := make([]messageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, messageView{
			ID:               message.ID,
			Sender:           message.Sender,
			Receiver:         message.Receiver,
			Content:          message.Content,
			CreatedAtSeconds: message.CreatedAtSeconds,
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

func (h *httpHandler) handleFollow(c *gin.Context) {
	principal, ok := h.actingPrincipal(c)
	if !ok {
		return
	}
	var request followPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	followed, err := ledger.NewPrincipalID(request.Followed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_principal"})
		return
	}
	if err := h.ledger.Follow(c.Request.Context(), principal, followed); err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleGrantDelegation(c *gin.Context) {
	principal, ok := h.actingPrincipal(c)
	if !ok {
		return
	}
	var request delegationPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	operator, err := ledger.NewPrincipalID(request.Operator)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_principal"})
		return
	}
	if err := h.ledger.GrantDelegation(c.Request.Context(), principal, operator); err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleRevokeDelegation(c *gin.Context) {
	principal, ok := h.actingPrincipal(c)
	if !ok {
		return
	}
	operator, err := ledger.NewPrincipalID(c.Param("operator"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_principal"})
		return
	}
	if err := h.ledger.RevokeDelegation(c.Request.Context(), principal, operator); err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleLatestTweets(c *gin.Context) {
	count, ok := countQuery(c)
	if !ok {
		return
	}
	tweets, err := h.ledger.LatestTweets(count)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tweets": tweetViews(tweets)})
}

func (h *httpHandler) handleLatestTweetsOf(c *gin.Context) {
	account, err := ledger.NewPrincipalID(c.Param("account"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_principal"})
		return
	}
	count, ok := countQuery(c)
	if !ok {
		return
	}
	tweets, err := h.ledger.LatestTweetsOf(account, count)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tweets": tweetViews(tweets)})
}

func (h *httpHandler) handleLatestComments(c *gin.Context) {
	tweetID, ok := tweetIDParam(c)
	if !ok {
		return
	}
	count, ok := countQuery(c)
	if !ok {
		return
	}
	comments, err := h.ledger.LatestComments(tweetID, count)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	views := make([]commentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, commentView{
			ID:               comment.ID,
			TweetID:          comment.TweetID,
			Author:           comment.Author,
			Content:          comment.Content,
			CreatedAtSeconds: comment.CreatedAtSeconds,
		})
	}
	c.JSON(http.StatusOK, gin.H{"comments": views})
}

func (h *httpHandler) handleEvents(c *gin.Context) {
	since, err := strconv.Atoi(c.DefaultQuery("since", "0"))
	if err != nil || since < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_since"})
		return
	}
	events := h.ledger.Events().Since(since)
	views := make([]eventView, 0, len(events))
	for _, event := range events {
		views = append(views, eventView{
			ID:                event.ID,
			Kind:              event.Kind,
			OccurredAtSeconds: event.OccurredAtSeconds,
			Payload:           json.RawMessage(event.PayloadJSON),
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": views, "next": since + len(views)})
}

func (h *httpHandler) actingPrincipal(c *gin.Context) (ledger.PrincipalID, bool) {
	principal, err := ledger.NewPrincipalID(c.GetString(principalContextKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return principal, true
}

// delegatedOwner resolves the optional on_behalf_of field. The empty owner
// with delegated=true signals that a response was already written.
func delegatedOwner(c *gin.Context, onBehalfOf string, principal ledger.PrincipalID) (ledger.PrincipalID, bool) {
	trimmed := strings.TrimSpace(onBehalfOf)
	if trimmed == "" || trimmed == principal.String() {
		return "", false
	}
	owner, err := ledger.NewPrincipalID(trimmed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_principal"})
		return "", true
	}
	return owner, true
}

func tweetIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_tweet_id"})
		return 0, false
	}
	return id, true
}

func countQuery(c *gin.Context) (int, bool) {
	count, err := strconv.Atoi(c.Query("count"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_count"})
		return 0, false
	}
	return count, true
}

func tweetViews(tweets []ledger.Tweet) []tweetView {
	views := make([]tweetView, 0, len(tweets))
	for _, tweet := range tweets {
		views = append(views, tweetView{
			ID:               tweet.ID,
			Author:           tweet.Author,
			Content:          tweet.Content,
			CreatedAtSeconds: tweet.CreatedAtSeconds,
			LikeCount:        tweet.LikeCount,
			CommentCount:     tweet.CommentCount,
		})
	}
	return views
}

func (h *httpHandler) respondLedgerError(c *gin.Context, err error) {
	code := "internal_error"
	var serviceErr *ledger.ServiceError
	if errors.As(err, &serviceErr) {
		code = serviceErr.Code()
	}

	status := http.StatusInternalServerError
	switch {
	case ledger.IsAuthorization(err):
		status = http.StatusForbidden
	case ledger.IsDuplicateState(err):
		status = http.StatusConflict
	case ledger.IsValidation(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("ledger operation failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": code})
}
