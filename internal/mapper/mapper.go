package mapper

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/omfgitsmark/mtgsqlive/internal/data"
	"github.com/omfgitsmark/mtgsqlive/internal/mtgjson"
	"github.com/omfgitsmark/mtgsqlive/internal/schema"
)

// Row is one relational row destined for Table. Value is a pointer to the
// table's model. Key is the primary key of the record the row belongs to.
type Row struct {
	Table *schema.Table
	Key   string
	Value any
}

// Record is a mapped input record. Rows yields the parent row first, then
// the rows of each nested list in list order. Iterating Rows again rebuilds
// the rows from the source record.
type Record struct {
	Kind mtgjson.Kind
	Ref  string
	Key  string
	Rows iter.Seq[Row]
}

// Mapper turns input records into relational rows.
type Mapper struct {
	strict bool

	sets, setTranslations                               *schema.Table
	cards, cardRulings, cardForeignData, cardLegalities *schema.Table
	cardPrices, cardLists, tokens, tokenLists           *schema.Table
}

// New resolves the tables the mapper writes to. In strict mode records with
// unknown fields are rejected, otherwise the fields are dropped with a
// warning.
func New(s *schema.Schema, strict bool) (*Mapper, error) {
	m := &Mapper{strict: strict}
	for name, dst := range map[string]**schema.Table{
		"sets":              &m.sets,
		"set_translations":  &m.setTranslations,
		"cards":             &m.cards,
		"card_rulings":      &m.cardRulings,
		"card_foreign_data": &m.cardForeignData,
		"card_legalities":   &m.cardLegalities,
		"card_prices":       &m.cardPrices,
		"card_list_values":  &m.cardLists,
		"tokens":            &m.tokens,
		"token_list_values": &m.tokenLists,
	} {
		t, ok := s.Table(name)
		if !ok {
			return nil, fmt.Errorf("schema has no table %q", name)
		}
		*dst = t
	}
	return m, nil
}

// Map validates rec and returns its rows.
func (m *Mapper) Map(rec mtgjson.Record) (Record, error) {
	if unknown := rec.UnknownFields(); len(unknown) > 0 {
		if m.strict {
			return Record{}, &UnknownFieldError{Kind: rec.Kind(), Ref: rec.Ref(), Fields: unknown}
		}
		slog.Warn("Dropping unknown fields", "kind", rec.Kind(), "ref", rec.Ref(), "fields", unknown)
	}

	switch r := rec.(type) {
	case *mtgjson.Set:
		return m.mapSet(r)
	case *mtgjson.Card:
		return m.mapCard(r)
	case *mtgjson.Token:
		return m.mapToken(r)
	default:
		return Record{}, fmt.Errorf("%w: unsupported record type %T", ErrInvalidRecord, rec)
	}
}

func (m *Mapper) mapSet(s *mtgjson.Set) (Record, error) {
	if s.Code == "" {
		return Record{}, fmt.Errorf("%w: set without code", ErrInvalidRecord)
	}
	key := s.Code
	rows := func(yield func(Row) bool) {
		if !yield(Row{Table: m.sets, Key: key, Value: setModel(s)}) {
			return
		}
		for i, tr := range s.Translations {
			row := &data.SetTranslation{SetCode: key, Seq: i, Language: tr.Language, Translation: tr.Name}
			if !yield(Row{Table: m.setTranslations, Key: key, Value: row}) {
				return
			}
		}
	}
	return Record{Kind: mtgjson.KindSet, Ref: s.Ref(), Key: key, Rows: rows}, nil
}

func (m *Mapper) mapCard(c *mtgjson.Card) (Record, error) {
	if c.Name == "" {
		return Record{}, fmt.Errorf("%w: card %s has no name", ErrInvalidRecord, c.Ref())
	}
	if c.SetCode == "" {
		return Record{}, fmt.Errorf("%w: card %s has no set code", ErrInvalidRecord, c.Ref())
	}
	key := CardKey(c)
	rows := func(yield func(Row) bool) {
		emit := func(t *schema.Table, v any) bool {
			return yield(Row{Table: t, Key: key, Value: v})
		}
		if !emit(m.cards, cardModel(c, key)) {
			return
		}
		for i, r := range c.Rulings {
			if !emit(m.cardRulings, &data.CardRuling{CardUUID: key, Seq: i, Date: r.Date, Text: r.Text}) {
				return
			}
		}
		for i, f := range c.ForeignData {
			row := &data.CardForeignData{
				CardUUID:     key,
				Seq:          i,
				Language:     f.Language,
				Name:         f.Name,
				Text:         f.Text,
				Type:         f.Type,
				FlavorText:   f.FlavorText,
				MultiverseID: f.MultiverseID,
			}
			if !emit(m.cardForeignData, row) {
				return
			}
		}
		for i, l := range c.Legalities {
			if !emit(m.cardLegalities, &data.CardLegality{CardUUID: key, Seq: i, Format: l.Format, Status: l.Status}) {
				return
			}
		}
		for i, p := range c.Prices {
			if !emit(m.cardPrices, &data.CardPrice{CardUUID: key, Seq: i, Type: p.Type, Date: p.Date, Price: p.Price}) {
				return
			}
		}
		for _, list := range cardLists(c) {
			for i, v := range *list.values {
				if !emit(m.cardLists, &data.CardListValue{CardUUID: key, Field: list.field, Seq: i, Value: v}) {
					return
				}
			}
		}
	}
	return Record{Kind: mtgjson.KindCard, Ref: c.Ref(), Key: key, Rows: rows}, nil
}

func (m *Mapper) mapToken(t *mtgjson.Token) (Record, error) {
	if t.Name == "" {
		return Record{}, fmt.Errorf("%w: token %s has no name", ErrInvalidRecord, t.Ref())
	}
	if t.SetCode == "" {
		return Record{}, fmt.Errorf("%w: token %s has no set code", ErrInvalidRecord, t.Ref())
	}
	key := TokenKey(t)
	rows := func(yield func(Row) bool) {
		if !yield(Row{Table: m.tokens, Key: key, Value: tokenModel(t, key)}) {
			return
		}
		for _, list := range tokenLists(t) {
			for i, v := range *list.values {
				row := &data.TokenListValue{TokenUUID: key, Field: list.field, Seq: i, Value: v}
				if !yield(Row{Table: m.tokenLists, Key: key, Value: row}) {
					return
				}
			}
		}
	}
	return Record{Kind: mtgjson.KindToken, Ref: t.Ref(), Key: key, Rows: rows}, nil
}

// stringList names a string list field by its JSON key.
type stringList struct {
	field  string
	values *[]string
}

func cardLists(c *mtgjson.Card) []stringList {
	return []stringList{
		{"colors", &c.Colors},
		{"colorIdentity", &c.ColorIdentity},
		{"colorIndicator", &c.ColorIndicator},
		{"names", &c.Names},
		{"printings", &c.Printings},
		{"subtypes", &c.Subtypes},
		{"supertypes", &c.Supertypes},
		{"types", &c.Types},
		{"variations", &c.Variations},
	}
}

func tokenLists(t *mtgjson.Token) []stringList {
	return []stringList{
		{"colors", &t.Colors},
		{"colorIdentity", &t.ColorIdentity},
		{"colorIndicator", &t.ColorIndicator},
		{"names", &t.Names},
		{"reverseRelated", &t.ReverseRelated},
		{"subtypes", &t.Subtypes},
		{"supertypes", &t.Supertypes},
		{"types", &t.Types},
	}
}

func setModel(s *mtgjson.Set) *data.Set {
	ds := &data.Set{
		Code:             s.Code,
		Name:             s.Name,
		ReleaseDate:      s.ReleaseDate,
		Type:             s.Type,
		Block:            s.Block,
		BaseSetSize:      s.BaseSetSize,
		TotalSetSize:     s.TotalSetSize,
		ParentCode:       s.ParentCode,
		MtgoCode:         s.MtgoCode,
		CodeV3:           s.CodeV3,
		KeyruneCode:      s.KeyruneCode,
		McmID:            s.McmID,
		McmName:          s.McmName,
		TcgplayerGroupID: s.TcgplayerGroupID,
		IsFoilOnly:       s.IsFoilOnly,
		IsForeignOnly:    s.IsForeignOnly,
		IsOnlineOnly:     s.IsOnlineOnly,
		IsPartialPreview: s.IsPartialPreview,
		BoosterV3:        data.RawJSON(s.BoosterV3),
	}
	if s.Meta != nil {
		ds.MetaDate = s.Meta.Date
		ds.MetaPricesDate = s.Meta.PricesDate
		ds.MetaVersion = s.Meta.Version
	}
	return ds
}

func cardModel(c *mtgjson.Card, key string) *data.Card {
	return &data.Card{
		UUID:                   key,
		SetCode:                c.SetCode,
		Name:                   c.Name,
		Number:                 c.Number,
		Rarity:                 c.Rarity,
		Text:                   c.Text,
		FlavorText:             c.FlavorText,
		OriginalText:           c.OriginalText,
		OriginalType:           c.OriginalType,
		ManaCost:               c.ManaCost,
		ConvertedManaCost:      c.ConvertedManaCost,
		FaceConvertedManaCost:  c.FaceConvertedManaCost,
		Type:                   c.Type,
		Layout:                 c.Layout,
		Artist:                 c.Artist,
		Power:                  c.Power,
		Toughness:              c.Toughness,
		Loyalty:                c.Loyalty,
		Hand:                   c.Hand,
		Life:                   c.Life,
		BorderColor:            c.BorderColor,
		FrameVersion:           c.FrameVersion,
		Watermark:              c.Watermark,
		Side:                   c.Side,
		DuelDeck:               c.DuelDeck,
		MultiverseID:           c.MultiverseID,
		MtgoID:                 c.MtgoID,
		MtgArenaID:             c.MtgArenaID,
		EdhrecRank:             c.EdhrecRank,
		TcgplayerProductID:     c.TcgplayerProductID,
		ScryfallID:             c.ScryfallID,
		ScryfallOracleID:       c.ScryfallOracleID,
		ScryfallIllustrationID: c.ScryfallIllustrationID,
		FrameEffect:            c.FrameEffect,
		McmID:                  c.McmID,
		McmMetaID:              c.McmMetaID,
		McmName:                c.McmName,
		MtgoFoilID:             c.MtgoFoilID,
		MtgstocksID:            c.MtgstocksID,
		TcgplayerPurchaseURL:   c.TcgplayerPurchaseURL,
		LeadershipSkills:       data.RawJSON(c.LeadershipSkills),
		PurchaseURLs:           data.RawJSON(c.PurchaseURLs),
		HasFoil:                c.HasFoil,
		HasNoDeckLimit:         c.HasNoDeckLimit,
		HasNonFoil:             c.HasNonFoil,
		IsAlternative:          c.IsAlternative,
		IsArena:                c.IsArena,
		IsFullArt:              c.IsFullArt,
		IsMtgo:                 c.IsMtgo,
		IsOnlineOnly:           c.IsOnlineOnly,
		IsOversized:            c.IsOversized,
		IsPaper:                c.IsPaper,
		IsPromo:                c.IsPromo,
		IsReprint:              c.IsReprint,
		IsReserved:             c.IsReserved,
		IsStarter:              c.IsStarter,
		IsStorySpotlight:       c.IsStorySpotlight,
		IsTextless:             c.IsTextless,
		IsTimeshifted:          c.IsTimeshifted,
	}
}

func tokenModel(t *mtgjson.Token, key string) *data.Token {
	return &data.Token{
		UUID:                   key,
		SetCode:                t.SetCode,
		Name:                   t.Name,
		Number:                 t.Number,
		Type:                   t.Type,
		Text:                   t.Text,
		Power:                  t.Power,
		Toughness:              t.Toughness,
		Loyalty:                t.Loyalty,
		Layout:                 t.Layout,
		Side:                   t.Side,
		DuelDeck:               t.DuelDeck,
		Artist:                 t.Artist,
		BorderColor:            t.BorderColor,
		Watermark:              t.Watermark,
		ScryfallID:             t.ScryfallID,
		ScryfallOracleID:       t.ScryfallOracleID,
		ScryfallIllustrationID: t.ScryfallIllustrationID,
		IsOnlineOnly:           t.IsOnlineOnly,
	}
}
