package http

import (
	"errors"
	"net/http"
	"strconv"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/services"
	"shopledger/internal/session"
)

type productsView struct {
	Page       ports.ProductPage
	Query      ports.ProductQuery
	Categories []core.Category
	CartLines  []core.CartLine
	CartTotal  core.Money
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	query := parseProductQuery(r)
	data := productsView{Query: query}
	p := s.pageData(sess, nil)

	pageRes, err := ws.Catalog.Products(r.Context(), query)
	if err != nil {
		// Validation errors render inline; the stale product list stays off.
		p.Error = userMessage(err)
	} else {
		data.Page = pageRes
	}
	if cats, err := ws.Catalog.Categories(r.Context()); err == nil {
		data.Categories = cats
	}
	data.CartLines = ws.Cart.Lines()
	data.CartTotal = ws.Cart.Total()

	if msg := r.URL.Query().Get("error"); p.Error == "" && msg != "" {
		p.Error = msg
	}
	p.Data = data
	s.render(w, r, "products.html", p)
}

// findProduct resolves a product by id through the current query-less page
// list; cart operations need the live stock number.
func (s *Server) findProduct(r *http.Request, ws *services.Workspace, id string) (core.Product, error) {
	page, err := ws.Catalog.Products(r.Context(), ports.ProductQuery{Limit: 1000})
	if err != nil {
		return core.Product{}, err
	}
	for _, p := range page.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Product{}, errors.New("product not found")
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	product, err := s.findProduct(r, ws, formValue(r, "product"))
	if err == nil {
		err = ws.Cart.Add(product)
	}
	s.redirectProducts(w, r, err)
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	id := formValue(r, "product")
	quantity, qerr := strconv.ParseInt(formValue(r, "quantity"), 10, 64)
	if qerr != nil {
		s.redirectProducts(w, r, core.ErrInvalidQuantity)
		return
	}
	product, err := s.findProduct(r, ws, id)
	if err == nil {
		err = ws.Cart.SetQuantity(id, quantity, product.Quantity)
	}
	s.redirectProducts(w, r, err)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	ws.Cart.Remove(formValue(r, "product"))
	s.redirectProducts(w, r, nil)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	// Admins check out on behalf of a named customer; users buy for
	// themselves.
	user := sess.Username
	if sess.IsAdmin() {
		if v := formValue(r, "user"); v != "" {
			user = v
		}
	}
	err := ws.Txns.Checkout(r.Context(), user, ws.Cart)
	s.redirectProducts(w, r, err)
}

func (s *Server) redirectProducts(w http.ResponseWriter, r *http.Request, err error) {
	target := "/products"
	if err != nil {
		target += "?error=" + urlEscape(userMessage(err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	input, err := parseProductInput(r)
	if err == nil {
		err = ws.Catalog.CreateProduct(r.Context(), input)
	}
	s.redirectProducts(w, r, err)
}

func (s *Server) handleProductUpdate(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	input, err := parseProductInput(r)
	if err == nil {
		err = ws.Catalog.UpdateProduct(r.Context(), formValue(r, "id"), input)
	}
	s.redirectProducts(w, r, err)
}

func (s *Server) handleProductDelete(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	err := ws.Catalog.DeleteProduct(r.Context(), formValue(r, "id"), confirmed(r))
	if errors.Is(err, services.ErrConfirmationRequired) {
		s.renderConfirm(w, r, sess, "Delete this product?", "/products/delete")
		return
	}
	s.redirectProducts(w, r, err)
}

func parseProductInput(r *http.Request) (ports.ProductInput, error) {
	price, err := core.ParseAmount(formValue(r, "price"))
	if err != nil {
		return ports.ProductInput{}, err
	}
	quantity, err := strconv.ParseInt(formValue(r, "quantity"), 10, 64)
	if err != nil || quantity < 0 {
		return ports.ProductInput{}, core.ErrInvalidQuantity
	}
	return ports.ProductInput{
		SKU:      formValue(r, "sku"),
		Name:     formValue(r, "name"),
		Category: formValue(r, "category"),
		Price:    price,
		Quantity: quantity,
		Status:   core.ProductStatus(formValue(r, "status")),
	}, nil
}

type categoriesView struct {
	Categories []core.Category
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	p := s.pageData(sess, nil)
	cats, err := ws.Catalog.Categories(r.Context())
	if err != nil {
		p.Error = userMessage(err)
	}
	if msg := r.URL.Query().Get("error"); msg != "" {
		p.Error = msg
	}
	p.Data = categoriesView{Categories: cats}
	s.render(w, r, "categories.html", p)
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	_, err := ws.Catalog.CreateCategory(r.Context(), formValue(r, "name"))
	s.redirectWithError(w, r, "/categories", err)
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	err := ws.Catalog.DeleteCategory(r.Context(), formValue(r, "id"), confirmed(r))
	if errors.Is(err, services.ErrConfirmationRequired) {
		s.renderConfirm(w, r, sess, "Delete this category?", "/categories/delete")
		return
	}
	s.redirectWithError(w, r, "/categories", err)
}
