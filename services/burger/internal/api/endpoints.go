package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/burger/services/burger/internal/auth"
	"github.com/appetiteclub/burger/services/burger/internal/burger"
)

var (
	ErrIngredientsRejected = errors.New("failed to fetch ingredients")
	ErrOrderRejected       = errors.New("failed to create ingredients order")
	ErrAuthRejected        = errors.New("auth request rejected")
)

type ingredientsResponse struct {
	Success bool                `json:"success"`
	Data    []burger.Ingredient `json:"data"`
}

type createOrderRequest struct {
	Ingredients []string `json:"ingredients"`
}

type createOrderResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	Order   struct {
		Number int `json:"number"`
	} `json:"order"`
}

type orderDetailsResponse struct {
	Success bool              `json:"success"`
	Orders  []burger.RawOrder `json:"orders"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FetchCatalog loads every ingredient.
func (c *Client) FetchCatalog(ctx context.Context) ([]burger.Ingredient, error) {
	var resp ingredientsResponse
	if err := c.do(ctx, "GET", c.ingredientsURL, nil, &resp, ""); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, ErrIngredientsRejected
	}
	return resp.Data, nil
}

// CreateOrder places an order. ingredientIDs is sent as is.
func (c *Client) CreateOrder(ctx context.Context, ingredientIDs []string, accessToken string) (burger.OrderReceipt, error) {
	var resp createOrderResponse
	req := createOrderRequest{Ingredients: ingredientIDs}
	if err := c.do(ctx, "POST", "/orders", req, &resp, accessToken); err != nil {
		return burger.OrderReceipt{}, err
	}
	if !resp.Success {
		return burger.OrderReceipt{}, ErrOrderRejected
	}
	return burger.OrderReceipt{Number: resp.Order.Number, Name: resp.Name}, nil
}

// GetOrder looks an order up by number. The API answers with a list.
func (c *Client) GetOrder(ctx context.Context, number int) ([]burger.RawOrder, error) {
	var resp orderDetailsResponse
	if err := c.do(ctx, "GET", fmt.Sprintf("/orders/%d", number), nil, &resp, ""); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("order %d lookup rejected", number)
	}
	return resp.Orders, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	var resp tokenResponse
	if err := c.do(ctx, "POST", "/auth/login", loginRequest{Email: email, Password: password}, &resp, ""); err != nil {
		return auth.TokenPair{}, err
	}
	return tokenPair(resp)
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	var resp messageResponse
	if err := c.do(ctx, "POST", "/auth/logout", tokenRequest{Token: refreshToken}, &resp, ""); err != nil {
		return err
	}
	if !resp.Success {
		return rejected(resp.Message)
	}
	return nil
}

// RefreshToken trades a refresh token for a new pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	var resp tokenResponse
	if err := c.do(ctx, "POST", "/auth/token", tokenRequest{Token: refreshToken}, &resp, ""); err != nil {
		return auth.TokenPair{}, err
	}
	return tokenPair(resp)
}

func tokenPair(resp tokenResponse) (auth.TokenPair, error) {
	if !resp.Success {
		return auth.TokenPair{}, rejected(resp.Message)
	}
	return auth.TokenPair{
		AccessToken:  auth.NormalizeAccessToken(resp.AccessToken),
		RefreshToken: resp.RefreshToken,
	}, nil
}

func rejected(message string) error {
	if message == "" {
		return ErrAuthRejected
	}
	return fmt.Errorf("%w: %s", ErrAuthRejected, message)
}
