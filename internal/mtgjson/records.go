package mtgjson

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// The MTGJSON v4 export is either a single AllSets object keyed by set code
// or a directory holding one such set object per file.

// Kind tags the entity type of a Record.
type Kind string

const (
	KindSet   Kind = "set"
	KindCard  Kind = "card"
	KindToken Kind = "token"
)

// Record is one unit of input: a set header, a card or a token.
type Record interface {
	Kind() Kind
	// Ref identifies the record in logs and error reports.
	Ref() string
	// UnknownFields lists JSON keys the record does not model, nested
	// entries prefixed with their path (e.g. "rulings[0].foo").
	UnknownFields() []string
}

// Meta describes the export a set came from.
type Meta struct {
	Date       *string `json:"date,omitempty"`
	PricesDate *string `json:"pricesDate,omitempty"`
	Version    *string `json:"version,omitempty"`

	extra []string
}

type Set struct {
	Code             string          `json:"code"`
	Name             *string         `json:"name,omitempty"`
	ReleaseDate      *string         `json:"releaseDate,omitempty"`
	Type             *string         `json:"type,omitempty"`
	Block            *string         `json:"block,omitempty"`
	BaseSetSize      *int            `json:"baseSetSize,omitempty"`
	TotalSetSize     *int            `json:"totalSetSize,omitempty"`
	ParentCode       *string         `json:"parentCode,omitempty"`
	MtgoCode         *string         `json:"mtgoCode,omitempty"`
	CodeV3           *string         `json:"codeV3,omitempty"`
	KeyruneCode      *string         `json:"keyruneCode,omitempty"`
	McmID            *int            `json:"mcmId,omitempty"`
	McmName          *string         `json:"mcmName,omitempty"`
	TcgplayerGroupID *int            `json:"tcgplayerGroupId,omitempty"`
	IsFoilOnly       bool            `json:"isFoilOnly,omitempty"`
	IsForeignOnly    bool            `json:"isForeignOnly,omitempty"`
	IsOnlineOnly     bool            `json:"isOnlineOnly,omitempty"`
	IsPartialPreview bool            `json:"isPartialPreview,omitempty"`
	BoosterV3        json.RawMessage `json:"boosterV3,omitempty"`
	Meta             *Meta           `json:"meta,omitempty"`
	Translations     Translations    `json:"translations,omitempty"`

	// Cards and Tokens stay undecoded until SetFile.Records walks them so a
	// single bad entry only costs that entry.
	Cards  []json.RawMessage `json:"cards,omitempty"`
	Tokens []json.RawMessage `json:"tokens,omitempty"`

	extra []string
}

func (s *Set) Kind() Kind  { return KindSet }
func (s *Set) Ref() string { return s.Code }

func (s *Set) UnknownFields() []string {
	fields := append([]string(nil), s.extra...)
	if s.Meta != nil {
		fields = append(fields, prefixed("meta", s.Meta.extra)...)
	}
	return fields
}

type Ruling struct {
	Date *string `json:"date,omitempty"`
	Text *string `json:"text,omitempty"`

	extra []string
}

type ForeignData struct {
	Language     *string `json:"language,omitempty"`
	Name         *string `json:"name,omitempty"`
	Text         *string `json:"text,omitempty"`
	Type         *string `json:"type,omitempty"`
	FlavorText   *string `json:"flavorText,omitempty"`
	MultiverseID *int    `json:"multiverseId,omitempty"`

	extra []string
}

type Card struct {
	UUID                   string   `json:"uuid,omitempty"`
	Name                   string   `json:"name"`
	SetCode                string   `json:"setCode,omitempty"`
	Number                 *string  `json:"number,omitempty"`
	Rarity                 *string  `json:"rarity,omitempty"`
	Text                   *string  `json:"text,omitempty"`
	FlavorText             *string  `json:"flavorText,omitempty"`
	OriginalText           *string  `json:"originalText,omitempty"`
	OriginalType           *string  `json:"originalType,omitempty"`
	ManaCost               *string  `json:"manaCost,omitempty"`
	ConvertedManaCost      *float64 `json:"convertedManaCost,omitempty"`
	FaceConvertedManaCost  *float64 `json:"faceConvertedManaCost,omitempty"`
	Type                   *string  `json:"type,omitempty"`
	Layout                 *string  `json:"layout,omitempty"`
	Artist                 *string  `json:"artist,omitempty"`
	Power                  *string  `json:"power,omitempty"`
	Toughness              *string  `json:"toughness,omitempty"`
	Loyalty                *string  `json:"loyalty,omitempty"`
	Hand                   *string  `json:"hand,omitempty"`
	Life                   *string  `json:"life,omitempty"`
	BorderColor            *string  `json:"borderColor,omitempty"`
	FrameVersion           *string  `json:"frameVersion,omitempty"`
	Watermark              *string  `json:"watermark,omitempty"`
	Side                   *string  `json:"side,omitempty"`
	DuelDeck               *string  `json:"duelDeck,omitempty"`
	MultiverseID           *int     `json:"multiverseId,omitempty"`
	MtgoID                 *int     `json:"mtgoId,omitempty"`
	MtgArenaID             *int     `json:"mtgArenaId,omitempty"`
	EdhrecRank             *int     `json:"edhrecRank,omitempty"`
	TcgplayerProductID     *int     `json:"tcgplayerProductId,omitempty"`
	ScryfallID             *string  `json:"scryfallId,omitempty"`
	ScryfallOracleID       *string  `json:"scryfallOracleId,omitempty"`
	ScryfallIllustrationID *string  `json:"scryfallIllustrationId,omitempty"`
	FrameEffect            *string  `json:"frameEffect,omitempty"`
	McmID                  *int     `json:"mcmId,omitempty"`
	McmMetaID              *int     `json:"mcmMetaId,omitempty"`
	McmName                *string  `json:"mcmName,omitempty"`
	MtgoFoilID             *int     `json:"mtgoFoilId,omitempty"`
	MtgstocksID            *int     `json:"mtgstocksId,omitempty"`
	TcgplayerPurchaseURL   *string  `json:"tcgplayerPurchaseUrl,omitempty"`

	// Nested objects kept as documents.
	LeadershipSkills json.RawMessage `json:"leadershipSkills,omitempty"`
	PurchaseURLs     json.RawMessage `json:"purchaseUrls,omitempty"`

	HasFoil          bool `json:"hasFoil,omitempty"`
	HasNoDeckLimit   bool `json:"hasNoDeckLimit,omitempty"`
	HasNonFoil       bool `json:"hasNonFoil,omitempty"`
	IsAlternative    bool `json:"isAlternative,omitempty"`
	IsArena          bool `json:"isArena,omitempty"`
	IsFullArt        bool `json:"isFullArt,omitempty"`
	IsMtgo           bool `json:"isMtgo,omitempty"`
	IsOnlineOnly     bool `json:"isOnlineOnly,omitempty"`
	IsOversized      bool `json:"isOversized,omitempty"`
	IsPaper          bool `json:"isPaper,omitempty"`
	IsPromo          bool `json:"isPromo,omitempty"`
	IsReprint        bool `json:"isReprint,omitempty"`
	IsReserved       bool `json:"isReserved,omitempty"`
	IsStarter        bool `json:"isStarter,omitempty"`
	IsStorySpotlight bool `json:"isStorySpotlight,omitempty"`
	IsTextless       bool `json:"isTextless,omitempty"`
	IsTimeshifted    bool `json:"isTimeshifted,omitempty"`

	Colors         []string `json:"colors,omitempty"`
	ColorIdentity  []string `json:"colorIdentity,omitempty"`
	ColorIndicator []string `json:"colorIndicator,omitempty"`
	Names          []string `json:"names,omitempty"`
	Printings      []string `json:"printings,omitempty"`
	Subtypes       []string `json:"subtypes,omitempty"`
	Supertypes     []string `json:"supertypes,omitempty"`
	Types          []string `json:"types,omitempty"`
	Variations     []string `json:"variations,omitempty"`

	Rulings     []Ruling      `json:"rulings,omitempty"`
	ForeignData []ForeignData `json:"foreignData,omitempty"`
	Legalities  Legalities    `json:"legalities,omitempty"`
	Prices      Prices        `json:"prices,omitempty"`

	extra []string
}

func (c *Card) Kind() Kind { return KindCard }

func (c *Card) Ref() string {
	if c.UUID != "" {
		return c.UUID
	}
	if c.Number != nil {
		return fmt.Sprintf("%s #%s %s", c.SetCode, *c.Number, c.Name)
	}
	return fmt.Sprintf("%s %s", c.SetCode, c.Name)
}

func (c *Card) UnknownFields() []string {
	fields := append([]string(nil), c.extra...)
	for i, r := range c.Rulings {
		fields = append(fields, prefixed(fmt.Sprintf("rulings[%d]", i), r.extra)...)
	}
	for i, f := range c.ForeignData {
		fields = append(fields, prefixed(fmt.Sprintf("foreignData[%d]", i), f.extra)...)
	}
	return fields
}

type Token struct {
	UUID                   string  `json:"uuid,omitempty"`
	Name                   string  `json:"name"`
	SetCode                string  `json:"setCode,omitempty"`
	Number                 *string `json:"number,omitempty"`
	Type                   *string `json:"type,omitempty"`
	Text                   *string `json:"text,omitempty"`
	Power                  *string `json:"power,omitempty"`
	Toughness              *string `json:"toughness,omitempty"`
	Loyalty                *string `json:"loyalty,omitempty"`
	Layout                 *string `json:"layout,omitempty"`
	Side                   *string `json:"side,omitempty"`
	DuelDeck               *string `json:"duelDeck,omitempty"`
	Artist                 *string `json:"artist,omitempty"`
	BorderColor            *string `json:"borderColor,omitempty"`
	Watermark              *string `json:"watermark,omitempty"`
	ScryfallID             *string `json:"scryfallId,omitempty"`
	ScryfallOracleID       *string `json:"scryfallOracleId,omitempty"`
	ScryfallIllustrationID *string `json:"scryfallIllustrationId,omitempty"`
	IsOnlineOnly           bool    `json:"isOnlineOnly,omitempty"`

	Colors         []string `json:"colors,omitempty"`
	ColorIdentity  []string `json:"colorIdentity,omitempty"`
	ColorIndicator []string `json:"colorIndicator,omitempty"`
	Names          []string `json:"names,omitempty"`
	ReverseRelated []string `json:"reverseRelated,omitempty"`
	Subtypes       []string `json:"subtypes,omitempty"`
	Supertypes     []string `json:"supertypes,omitempty"`
	Types          []string `json:"types,omitempty"`

	extra []string
}

func (t *Token) Kind() Kind { return KindToken }

func (t *Token) Ref() string {
	if t.UUID != "" {
		return t.UUID
	}
	return fmt.Sprintf("%s token %s", t.SetCode, t.Name)
}

func (t *Token) UnknownFields() []string {
	return append([]string(nil), t.extra...)
}

// --- Decoding ---

var (
	setFields         = knownFields(Set{})
	metaFields        = knownFields(Meta{})
	cardFields        = knownFields(Card{}, "set")
	tokenFields       = knownFields(Token{}, "set")
	rulingFields      = knownFields(Ruling{})
	foreignDataFields = knownFields(ForeignData{})
)

func (s *Set) UnmarshalJSON(b []byte) error {
	type plain Set
	if err := json.Unmarshal(b, (*plain)(s)); err != nil {
		return err
	}
	s.extra = unknownKeys(b, setFields)
	return nil
}

func (m *Meta) UnmarshalJSON(b []byte) error {
	type plain Meta
	if err := json.Unmarshal(b, (*plain)(m)); err != nil {
		return err
	}
	m.extra = unknownKeys(b, metaFields)
	return nil
}

// UnmarshalJSON also accepts "set" as an alias of "setCode".
func (c *Card) UnmarshalJSON(b []byte) error {
	type plain Card
	if err := json.Unmarshal(b, (*plain)(c)); err != nil {
		return err
	}
	if c.SetCode == "" {
		if v := gjson.GetBytes(b, "set"); v.Type == gjson.String {
			c.SetCode = v.Str
		}
	}
	c.extra = unknownKeys(b, cardFields)
	return nil
}

func (t *Token) UnmarshalJSON(b []byte) error {
	type plain Token
	if err := json.Unmarshal(b, (*plain)(t)); err != nil {
		return err
	}
	if t.SetCode == "" {
		if v := gjson.GetBytes(b, "set"); v.Type == gjson.String {
			t.SetCode = v.Str
		}
	}
	t.extra = unknownKeys(b, tokenFields)
	return nil
}

func (r *Ruling) UnmarshalJSON(b []byte) error {
	type plain Ruling
	if err := json.Unmarshal(b, (*plain)(r)); err != nil {
		return err
	}
	r.extra = unknownKeys(b, rulingFields)
	return nil
}

func (f *ForeignData) UnmarshalJSON(b []byte) error {
	type plain ForeignData
	if err := json.Unmarshal(b, (*plain)(f)); err != nil {
		return err
	}
	f.extra = unknownKeys(b, foreignDataFields)
	return nil
}
