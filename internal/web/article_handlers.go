package web

import (
	"net/http"
	"time"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/game/wiki"
)

// articleRequest is the body of article create and update calls.
type articleRequest struct {
	Slug     string `json:"slug"`
	Title    string `json:"titre"`
	Body     string `json:"contenu"`
	Category string `json:"categorie"`
}

// articleView is the public projection of an encyclopedia article.
type articleView struct {
	ID              int64  `json:"id"`
	CampaignID      int64  `json:"campagneId"`
	AuthorAccountID int64  `json:"auteurId"`
	Slug            string `json:"slug"`
	Title           string `json:"titre"`
	Body            string `json:"contenu"`
	Category        string `json:"categorie"`
	UpdatedAt       string `json:"modifieLe"`
}

func newArticleView(a *wiki.Article) articleView {
	return articleView{
		ID:              a.ID,
		CampaignID:      a.CampaignID,
		AuthorAccountID: a.AuthorAccountID,
		Slug:            a.Slug,
		Title:           a.Title,
		Body:            a.Body,
		Category:        a.Category,
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	campaignID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireMember(r, campaignID, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}

	var req articleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	article := &wiki.Article{
		CampaignID:      campaignID,
		AuthorAccountID: ident.AccountID,
		Slug:            req.Slug,
		Title:           req.Title,
		Body:            req.Body,
		Category:        req.Category,
	}
	if article.Slug == "" {
		article.Slug = wiki.Slugify(article.Title)
	}
	if err := article.Validate(); err != nil {
		respondError(w, s.logger, invalid(err))
		return
	}

	created, err := s.articles.Create(r.Context(), article)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, newArticleView(created))
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	campaignID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireMember(r, campaignID, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}

	category := r.URL.Query().Get("categorie")
	if category != "" && !wiki.ValidCategory(category) {
		respondError(w, s.logger, invalidf("unknown category %q", category))
		return
	}

	articles, err := s.articles.ListByCampaign(r.Context(), campaignID, category)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	views := make([]articleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, newArticleView(a))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	article, err := s.fetchArticle(r, ident)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newArticleView(article))
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	article, err := s.fetchArticle(r, ident)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireArticleEditor(r, article, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}

	var req articleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	article.Title = req.Title
	article.Body = req.Body
	article.Category = req.Category
	if err := article.Validate(); err != nil {
		respondError(w, s.logger, invalid(err))
		return
	}

	if err := s.articles.Update(r.Context(), article); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newArticleView(article))
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	article, err := s.fetchArticle(r, ident)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireArticleEditor(r, article, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.articles.Delete(r.Context(), article.ID); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) fetchArticle(r *http.Request, ident auth.Identity) (*wiki.Article, error) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(r, campaignID, ident); err != nil {
		return nil, err
	}
	return s.articles.GetBySlug(r.Context(), campaignID, r.PathValue("slug"))
}

// requireArticleEditor allows the article's author, the campaign GM, and admins.
func (s *Server) requireArticleEditor(r *http.Request, article *wiki.Article, ident auth.Identity) error {
	if ident.AccountID == article.AuthorAccountID || ident.Role == auth.RoleAdmin {
		return nil
	}
	camp, err := s.campaigns.GetByID(r.Context(), article.CampaignID)
	if err != nil {
		return err
	}
	if !camp.IsGM(ident.AccountID) {
		return forbiddenf("only the author or the campaign GM may edit this article")
	}
	return nil
}
