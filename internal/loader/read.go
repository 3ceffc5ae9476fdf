package loader

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/omfgitsmark/mtgsqlive/internal/data"
	"github.com/omfgitsmark/mtgsqlive/internal/mapper"
	"github.com/omfgitsmark/mtgsqlive/internal/mtgjson"
)

func bySeq(db *gorm.DB) *gorm.DB {
	return db.Order("seq")
}

// Card reads a card and its lists back. A missing card returns an error
// wrapping gorm.ErrRecordNotFound.
func (l *Loader) Card(ctx context.Context, uuid string) (*mtgjson.Card, error) {
	var card data.Card
	err := l.db.WithContext(ctx).
		Preload("Rulings", bySeq).
		Preload("ForeignData", bySeq).
		Preload("Legalities", bySeq).
		Preload("Prices", bySeq).
		Preload("Lists", bySeq).
		First(&card, "uuid = ?", uuid).Error
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", uuid, err)
	}
	return mapper.CardFromModel(&card), nil
}

// Token reads a token and its lists back.
func (l *Loader) Token(ctx context.Context, uuid string) (*mtgjson.Token, error) {
	var token data.Token
	err := l.db.WithContext(ctx).
		Preload("Lists", bySeq).
		First(&token, "uuid = ?", uuid).Error
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", uuid, err)
	}
	return mapper.TokenFromModel(&token), nil
}

// Set reads a set header and its translations back.
func (l *Loader) Set(ctx context.Context, code string) (*mtgjson.Set, error) {
	var set data.Set
	err := l.db.WithContext(ctx).
		Preload("Translations", bySeq).
		First(&set, "code = ?", code).Error
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", code, err)
	}
	return mapper.SetFromModel(&set), nil
}
