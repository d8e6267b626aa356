package web

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/game/campaign"
	"github.com/chronique-jdr/chronique/internal/game/character"
	"github.com/chronique-jdr/chronique/internal/game/condition"
	"github.com/chronique-jdr/chronique/internal/game/inventory"
	"github.com/chronique-jdr/chronique/internal/game/wiki"
	"github.com/chronique-jdr/chronique/internal/gameserver"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
	"github.com/chronique-jdr/chronique/internal/ws"
)

// AccountStore is the account persistence the handlers need.
type AccountStore interface {
	Create(ctx context.Context, username, password string) (postgres.Account, error)
	Authenticate(ctx context.Context, username, password string) (postgres.Account, error)
}

// CampaignStore is the campaign persistence the handlers need.
type CampaignStore interface {
	Create(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error)
	GetByID(ctx context.Context, id int64) (*campaign.Campaign, error)
	ListByMember(ctx context.Context, accountID int64) ([]*campaign.Campaign, error)
	AddMember(ctx context.Context, campaignID, accountID int64) error
	IsMember(ctx context.Context, campaignID, accountID int64) (bool, error)
}

// CharacterStore is the character-sheet persistence the handlers need.
type CharacterStore interface {
	Create(ctx context.Context, c *character.Character) (*character.Character, error)
	GetByID(ctx context.Context, id int64) (*character.Character, error)
	ListByCampaign(ctx context.Context, campaignID int64) ([]*character.Character, error)
	Update(ctx context.Context, c *character.Character) error
	Delete(ctx context.Context, id int64) error
}

// ItemStore is the item-catalog and inventory persistence the handlers need.
type ItemStore interface {
	Create(ctx context.Context, item inventory.Item) (inventory.Item, error)
	GetByID(ctx context.Context, id int64) (inventory.Item, error)
	List(ctx context.Context) ([]inventory.Item, error)
	SheetFor(ctx context.Context, characterID int64) (*inventory.Sheet, error)
	SaveSheet(ctx context.Context, characterID int64, sheet *inventory.Sheet) error
}

// ArticleStore is the encyclopedia persistence the handlers need.
type ArticleStore interface {
	Create(ctx context.Context, a *wiki.Article) (*wiki.Article, error)
	GetBySlug(ctx context.Context, campaignID int64, slug string) (*wiki.Article, error)
	ListByCampaign(ctx context.Context, campaignID int64, category string) ([]*wiki.Article, error)
	Update(ctx context.Context, a *wiki.Article) error
	Delete(ctx context.Context, id int64) error
}

// Server wires the REST and websocket handlers to their services.
type Server struct {
	logger *zap.Logger
	tokens *auth.TokenIssuer

	accounts   AccountStore
	campaigns  CampaignStore
	characters CharacterStore
	items      ItemStore
	articles   ArticleStore

	broadcaster *gameserver.Broadcaster
	chat        *gameserver.ChatService
	dice        *gameserver.DiceService
	hub         *ws.Hub
	conditions  *condition.Registry
}

// Config carries the Server dependencies.
type Config struct {
	Logger *zap.Logger
	Tokens *auth.TokenIssuer

	Accounts   AccountStore
	Campaigns  CampaignStore
	Characters CharacterStore
	Items      ItemStore
	Articles   ArticleStore

	Broadcaster *gameserver.Broadcaster
	Chat        *gameserver.ChatService
	Dice        *gameserver.DiceService
	Hub         *ws.Hub
	Conditions  *condition.Registry
}

// NewServer creates a Server from its dependency set.
//
// Precondition: every Config field must be non-nil.
func NewServer(cfg Config) *Server {
	return &Server{
		logger:      cfg.Logger,
		tokens:      cfg.Tokens,
		accounts:    cfg.Accounts,
		campaigns:   cfg.Campaigns,
		characters:  cfg.Characters,
		items:       cfg.Items,
		articles:    cfg.Articles,
		broadcaster: cfg.Broadcaster,
		chat:        cfg.Chat,
		dice:        cfg.Dice,
		hub:         cfg.Hub,
		conditions:  cfg.Conditions,
	}
}

// Routes returns the full route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	mux.HandleFunc("GET /ws", s.handleWebsocket)

	mux.HandleFunc("POST /campaigns", s.requireAuth(s.handleCreateCampaign))
	mux.HandleFunc("GET /campaigns", s.requireAuth(s.handleListCampaigns))
	mux.HandleFunc("GET /campaigns/{id}", s.requireAuth(s.handleGetCampaign))
	mux.HandleFunc("POST /campaigns/{id}/join", s.requireAuth(s.handleJoinCampaign))

	mux.HandleFunc("POST /campaigns/{id}/characters", s.requireAuth(s.handleCreateCharacter))
	mux.HandleFunc("GET /campaigns/{id}/characters", s.requireAuth(s.handleListCharacters))
	mux.HandleFunc("GET /characters/{id}", s.requireAuth(s.handleGetCharacter))
	mux.HandleFunc("PUT /characters/{id}", s.requireAuth(s.handleUpdateCharacter))
	mux.HandleFunc("DELETE /characters/{id}", s.requireAuth(s.handleDeleteCharacter))

	mux.HandleFunc("POST /items", s.requireAuth(s.handleCreateItem))
	mux.HandleFunc("GET /items", s.requireAuth(s.handleListItems))
	mux.HandleFunc("GET /characters/{id}/inventory", s.requireAuth(s.handleGetInventory))
	mux.HandleFunc("PUT /characters/{id}/inventory", s.requireAuth(s.handleSaveInventory))

	mux.HandleFunc("POST /campaigns/{id}/articles", s.requireAuth(s.handleCreateArticle))
	mux.HandleFunc("GET /campaigns/{id}/articles", s.requireAuth(s.handleListArticles))
	mux.HandleFunc("GET /campaigns/{id}/articles/{slug}", s.requireAuth(s.handleGetArticle))
	mux.HandleFunc("PUT /campaigns/{id}/articles/{slug}", s.requireAuth(s.handleUpdateArticle))
	mux.HandleFunc("DELETE /campaigns/{id}/articles/{slug}", s.requireAuth(s.handleDeleteArticle))

	mux.HandleFunc("GET /conditions", s.requireAuth(s.handleListConditions))
	mux.HandleFunc("POST /campaigns/{id}/dice", s.requireAuth(s.handleRollDice))
	mux.HandleFunc("POST /campaigns/{id}/messages", s.requireAuth(s.handleSendMessage))
	mux.HandleFunc("GET /campaigns/{id}/messages", s.requireAuth(s.handleListMessages))

	mux.HandleFunc("POST /combats/start", s.requireAuth(s.handleStartCombat))
	mux.HandleFunc("GET /combats/{id}", s.requireAuth(s.handleGetCombat))
	mux.HandleFunc("POST /combats/{id}/end", s.requireAuth(s.handleEndCombat))
	mux.HandleFunc("POST /combats/{id}/initiative", s.requireAuth(s.handleRollInitiative))
	mux.HandleFunc("POST /combats/{id}/next-turn", s.requireAuth(s.handleNextTurn))
	mux.HandleFunc("POST /combats/{id}/next-round", s.requireAuth(s.handleNextRound))
	mux.HandleFunc("POST /combats/{id}/action", s.requireAuth(s.handleDeclareAction))
	mux.HandleFunc("PATCH /combats/{id}/participant/{pid}/hp", s.requireAuth(s.handleUpdateHP))
	mux.HandleFunc("POST /combats/{id}/participant/{pid}/condition", s.requireAuth(s.handleAddCondition))
	mux.HandleFunc("DELETE /combats/{id}/participant/{pid}/condition/{cid}", s.requireAuth(s.handleRemoveCondition))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
