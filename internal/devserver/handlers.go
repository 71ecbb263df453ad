package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/resourcemart/storefront/internal/logging"
	"github.com/resourcemart/storefront/internal/models"
)

// Server implements the remote catalog and cart services the client
// consumes. ES and Producer are optional; without them search falls back
// to SQL matching and events are dropped.
type Server struct {
	DB        *gorm.DB
	ES        *elasticsearch.Client
	Producer  *Producer
	JWTSecret []byte
	Log       *slog.Logger
}

func (s *Server) logger(ctx context.Context, handler string) *slog.Logger {
	l := s.Log
	if l == nil {
		l = logging.FromContext(ctx)
	}
	return l.With("handler", handler)
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func (s *Server) publish(c echo.Context, topic string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	key, _ := event["session_id"].(string)
	if err := s.Producer.PublishEvent(ctx, topic, key, event); err != nil {
		s.logger(ctx, "publish").Warn("event_publish_failed", "topic", topic, "error", err)
	}
}

// ListResources answers the paged, filtered, searched catalog query.
func (s *Server) ListResources(c echo.Context) error {
	ctx := c.Request().Context()
	l := s.logger(ctx, "resources.list")

	page, limit := clampPage(
		parseIntDefault(c.QueryParam("page"), 1),
		parseIntDefault(c.QueryParam("limit"), 20),
	)

	q := s.DB.WithContext(ctx).Model(&ResourceRow{})

	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if types := c.QueryParams()["type"]; len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	if v := c.QueryParam("price_min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q = q.Where("price >= ?", f)
		}
	}
	if v := c.QueryParam("price_max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q = q.Where("price <= ?", f)
		}
	}
	if v := c.QueryParam("rating"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q = q.Where("rating >= ?", f)
		}
	}

	if query := strings.TrimSpace(c.QueryParam("q")); query != "" {
		q = s.applySearch(ctx, l, q, query)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		l.Error("list_resources_failed", "status", 500, "reason", "count failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count resources")
	}

	q = applySort(q, c.QueryParam("sort_by"))

	var rows []ResourceRow
	if err := q.Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		l.Error("list_resources_failed", "status", 500, "reason", "select failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list resources")
	}

	items := make([]models.Resource, len(rows))
	for i, r := range rows {
		items[i] = r.ToResource()
	}

	l.Debug("list_resources_success", "page", page, "count", len(items), "total", total)
	return c.JSON(http.StatusOK, map[string]any{
		"items":    items,
		"total":    total,
		"has_more": int64(page)*int64(limit) < total,
	})
}

func (s *Server) applySearch(ctx context.Context, l *slog.Logger, q *gorm.DB, query string) *gorm.DB {
	if s.ES != nil {
		ids, err := searchIDs(ctx, s.ES, query, 1000)
		if err == nil {
			return q.Where("id IN ?", ids)
		}
		l.Warn("es_search_failed", "error", err)
	}
	needle := "%" + strings.ToLower(query) + "%"
	return q.Where("lower(title) LIKE ? OR lower(description) LIKE ?", needle, needle)
}

func applySort(q *gorm.DB, sortBy string) *gorm.DB {
	switch models.SortKey(sortBy) {
	case models.SortPopular:
		return q.Order("downloads DESC")
	case models.SortPrice:
		return q.Order("price ASC")
	case models.SortRating:
		return q.Order("rating DESC")
	default:
		return q.Order("created_at DESC")
	}
}

// Suggest returns typeahead candidates by title match.
func (s *Server) Suggest(c echo.Context) error {
	ctx := c.Request().Context()
	l := s.logger(ctx, "resources.suggest")

	query := strings.TrimSpace(c.QueryParam("q"))
	limit := parseIntDefault(c.QueryParam("limit"), 8)
	if limit < 1 || limit > 20 {
		limit = 8
	}

	var rows []ResourceRow
	db := s.DB.WithContext(ctx).Model(&ResourceRow{}).Order("downloads DESC").Limit(limit)
	if query != "" {
		db = db.Where("lower(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if err := db.Find(&rows).Error; err != nil {
		l.Error("suggest_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load suggestions")
	}

	suggestions := make([]models.Suggestion, len(rows))
	for i, r := range rows {
		suggestions[i] = models.Suggestion{ID: r.ID, Text: r.Title, Type: "resource"}
	}
	return c.JSON(http.StatusOK, map[string]any{"suggestions": suggestions})
}

// sessionID resolves the cart owner: JWT subject when a valid bearer token
// is present, the X-Session-ID header otherwise, "local" as a last resort.
func (s *Server) sessionID(c echo.Context) string {
	authz := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		raw := strings.TrimPrefix(authz, "Bearer ")
		claims := jwt.MapClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return s.JWTSecret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err == nil && tok.Valid {
			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				return sub
			}
		}
	}
	if sid := c.Request().Header.Get("X-Session-ID"); sid != "" {
		return sid
	}
	return "local"
}

func (s *Server) cartSnapshot(ctx context.Context, session string) (*models.Cart, error) {
	var rows []CartRow
	if err := s.DB.WithContext(ctx).Where("session_id = ?", session).Find(&rows).Error; err != nil {
		return nil, err
	}

	cart := &models.Cart{Items: []models.CartItem{}}
	for _, row := range rows {
		var res ResourceRow
		if err := s.DB.WithContext(ctx).First(&res, "id = ?", row.ResourceID).Error; err != nil {
			// Resource withdrawn from the catalog; its line is omitted.
			continue
		}
		cart.Items = append(cart.Items, models.CartItem{
			ResourceID: row.ResourceID,
			Title:      res.Title,
			Price:      res.Price,
			Thumbnail:  res.Thumbnail,
			Quantity:   row.Quantity,
		})
	}
	cart.Recalculate()
	return cart, nil
}

func (s *Server) respondCart(c echo.Context, l *slog.Logger, session string) error {
	snap, err := s.cartSnapshot(c.Request().Context(), session)
	if err != nil {
		l.Error("cart_snapshot_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	return s.respondCart(c, s.logger(ctx, "cart.get"), s.sessionID(c))
}

func (s *Server) AddCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := s.logger(ctx, "cart.add")
	session := s.sessionID(c)

	var req struct {
		ResourceID string `json:"resource_id"`
		Quantity   int    `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_cart_item_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ResourceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "resource_id is required")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	var res ResourceRow
	if err := s.DB.WithContext(ctx).First(&res, "id = ?", req.ResourceID).Error; err != nil {
		l.Warn("add_cart_item_failed", "status", 404, "resource_id", req.ResourceID)
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upd := tx.Model(&CartRow{}).
			Where("session_id = ? AND resource_id = ?", session, req.ResourceID).
			Update("quantity", gorm.Expr("quantity + ?", req.Quantity))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&CartRow{
			SessionID:  session,
			ResourceID: req.ResourceID,
			Quantity:   req.Quantity,
		}).Error
	})
	if err != nil {
		l.Error("add_cart_item_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add to cart")
	}

	s.publish(c, "cart_events", map[string]any{
		"type":        "cart_item_added",
		"session_id":  session,
		"resource_id": req.ResourceID,
		"quantity":    req.Quantity,
	})
	return s.respondCart(c, l, session)
}

func (s *Server) UpdateCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := s.logger(ctx, "cart.update")
	session := s.sessionID(c)
	resourceID := c.Param("id")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_item_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	db := s.DB.WithContext(ctx)
	if req.Quantity <= 0 {
		if err := db.Where("session_id = ? AND resource_id = ?", session, resourceID).
			Delete(&CartRow{}).Error; err != nil {
			l.Error("update_cart_item_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
		}
	} else {
		res := db.Model(&CartRow{}).
			Where("session_id = ? AND resource_id = ?", session, resourceID).
			Update("quantity", req.Quantity)
		if res.Error != nil {
			l.Error("update_cart_item_failed", "status", 500, "error", res.Error)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
		}
		if res.RowsAffected == 0 {
			return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
		}
	}

	s.publish(c, "cart_events", map[string]any{
		"type":        "cart_item_updated",
		"session_id":  session,
		"resource_id": resourceID,
		"quantity":    req.Quantity,
	})
	return s.respondCart(c, l, session)
}

func (s *Server) RemoveCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := s.logger(ctx, "cart.remove")
	session := s.sessionID(c)
	resourceID := c.Param("id")

	if err := s.DB.WithContext(ctx).
		Where("session_id = ? AND resource_id = ?", session, resourceID).
		Delete(&CartRow{}).Error; err != nil {
		l.Error("remove_cart_item_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot remove from cart")
	}

	s.publish(c, "cart_events", map[string]any{
		"type":        "cart_item_removed",
		"session_id":  session,
		"resource_id": resourceID,
	})
	return s.respondCart(c, l, session)
}

func (s *Server) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := s.logger(ctx, "cart.clear")
	session := s.sessionID(c)

	if err := s.DB.WithContext(ctx).
		Where("session_id = ?", session).
		Delete(&CartRow{}).Error; err != nil {
		l.Error("clear_cart_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot clear cart")
	}

	s.publish(c, "cart_events", map[string]any{
		"type":       "cart_cleared",
		"session_id": session,
	})
	return s.respondCart(c, l, session)
}

// Login authenticates an account and issues a 24h HS256 token.
func (s *Server) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := s.logger(ctx, "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var acc Account
	if err := s.DB.WithContext(ctx).First(&acc, "username = ?", req.Username).Error; err != nil {
		l.Warn("login_failed", "status", 401, "username", req.Username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		l.Warn("login_failed", "status", 401, "username", req.Username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	now := time.Now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      acc.ID,
		"username": acc.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(24 * time.Hour).Unix(),
	})
	signed, err := tok.SignedString(s.JWTSecret)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "sign token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot sign token")
	}

	l.Info("login_success", "username", acc.Username)
	return c.JSON(http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       acc.ID,
			"username": acc.Username,
			"avatar":   acc.Avatar,
		},
		"token": signed,
	})
}
