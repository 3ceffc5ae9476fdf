package data

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// RawJSON stores an arbitrary JSON document verbatim in a text column.
type RawJSON json.RawMessage

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return string(r), nil
}

func (r *RawJSON) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append(RawJSON(nil), v...)
	case string:
		*r = RawJSON(v)
	default:
		return errors.New("failed to scan RawJSON")
	}
	return nil
}

// --- Models ---
//
// Every nested list of a set, card or token has its own table keyed by the
// parent's primary key plus a "seq" column holding the list position.

type Set struct {
	Code             string `gorm:"primaryKey;column:code;size:20"`
	Name             *string
	ReleaseDate      *string `gorm:"size:10"`
	Type             *string `gorm:"size:32"`
	Block            *string
	BaseSetSize      *int
	TotalSetSize     *int
	ParentCode       *string `gorm:"size:20"`
	MtgoCode         *string `gorm:"size:20"`
	CodeV3           *string `gorm:"column:code_v3;size:20"`
	KeyruneCode      *string `gorm:"size:20"`
	McmID            *int    `gorm:"column:mcm_id"`
	McmName          *string
	TcgplayerGroupID *int `gorm:"column:tcgplayer_group_id"`
	IsFoilOnly       bool `gorm:"not null"`
	IsForeignOnly    bool `gorm:"not null"`
	IsOnlineOnly     bool `gorm:"not null"`
	IsPartialPreview bool `gorm:"not null"`
	BoosterV3        RawJSON `gorm:"column:booster_v3;type:text"`
	MetaDate         *string `gorm:"size:10"`
	MetaPricesDate   *string `gorm:"size:10"`
	MetaVersion      *string `gorm:"size:32"`

	Translations []SetTranslation `gorm:"foreignKey:SetCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Cards        []Card           `gorm:"foreignKey:SetCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tokens       []Token          `gorm:"foreignKey:SetCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Set) TableName() string { return "sets" }

type SetTranslation struct {
	SetCode     string `gorm:"primaryKey;column:set_code;size:20"`
	Seq         int    `gorm:"primaryKey;column:seq;autoIncrement:false"`
	Language    string `gorm:"size:64;not null"`
	Translation *string
}

func (SetTranslation) TableName() string { return "set_translations" }

type Card struct {
	UUID                   string  `gorm:"primaryKey;column:uuid;size:36"`
	SetCode                string  `gorm:"column:set_code;size:20;not null;index"`
	Name                   string  `gorm:"not null"`
	Number                 *string `gorm:"size:16"`
	Rarity                 *string `gorm:"size:16"`
	Text                   *string `gorm:"type:text"`
	FlavorText             *string `gorm:"type:text"`
	OriginalText           *string `gorm:"type:text"`
	OriginalType           *string
	ManaCost               *string
	ConvertedManaCost      *float64
	FaceConvertedManaCost  *float64
	Type                   *string
	Layout                 *string `gorm:"size:32"`
	Artist                 *string
	Power                  *string `gorm:"size:16"`
	Toughness              *string `gorm:"size:16"`
	Loyalty                *string `gorm:"size:16"`
	Hand                   *string `gorm:"size:16"`
	Life                   *string `gorm:"size:16"`
	BorderColor            *string `gorm:"size:16"`
	FrameVersion           *string `gorm:"size:16"`
	Watermark              *string
	Side                   *string `gorm:"size:8"`
	DuelDeck               *string `gorm:"size:8"`
	MultiverseID           *int    `gorm:"column:multiverse_id"`
	MtgoID                 *int    `gorm:"column:mtgo_id"`
	MtgArenaID             *int    `gorm:"column:mtg_arena_id"`
	EdhrecRank             *int
	TcgplayerProductID     *int    `gorm:"column:tcgplayer_product_id"`
	ScryfallID             *string `gorm:"column:scryfall_id;size:36"`
	ScryfallOracleID       *string `gorm:"column:scryfall_oracle_id;size:36"`
	ScryfallIllustrationID *string `gorm:"column:scryfall_illustration_id;size:36"`
	FrameEffect            *string `gorm:"size:32"`
	McmID                  *int    `gorm:"column:mcm_id"`
	McmMetaID              *int    `gorm:"column:mcm_meta_id"`
	McmName                *string
	MtgoFoilID             *int    `gorm:"column:mtgo_foil_id"`
	MtgstocksID            *int    `gorm:"column:mtgstocks_id"`
	TcgplayerPurchaseURL   *string `gorm:"column:tcgplayer_purchase_url;type:text"`
	LeadershipSkills       RawJSON `gorm:"type:text"`
	PurchaseURLs           RawJSON `gorm:"column:purchase_urls;type:text"`

	HasFoil          bool `gorm:"not null"`
	HasNoDeckLimit   bool `gorm:"not null"`
	HasNonFoil       bool `gorm:"not null"`
	IsAlternative    bool `gorm:"not null"`
	IsArena          bool `gorm:"not null"`
	IsFullArt        bool `gorm:"not null"`
	IsMtgo           bool `gorm:"not null"`
	IsOnlineOnly     bool `gorm:"not null"`
	IsOversized      bool `gorm:"not null"`
	IsPaper          bool `gorm:"not null"`
	IsPromo          bool `gorm:"not null"`
	IsReprint        bool `gorm:"not null"`
	IsReserved       bool `gorm:"not null"`
	IsStarter        bool `gorm:"not null"`
	IsStorySpotlight bool `gorm:"not null"`
	IsTextless       bool `gorm:"not null"`
	IsTimeshifted    bool `gorm:"not null"`

	Rulings     []CardRuling      `gorm:"foreignKey:CardUUID;references:UUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ForeignData []CardForeignData `gorm:"foreignKey:CardUUID;references:UUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Legalities  []CardLegality    `gorm:"foreignKey:CardUUID;references:UUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Prices      []CardPrice       `gorm:"foreignKey:CardUUID;references:UUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Lists       []CardListValue   `gorm:"foreignKey:CardUUID;references:UUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Card) TableName() string { return "cards" }

type CardRuling struct {
	CardUUID string  `gorm:"primaryKey;column:card_uuid;size:36"`
	Seq      int     `gorm:"primaryKey;column:seq;autoIncrement:false"`
	Date     *string `gorm:"size:10"`
	Text     *string `gorm:"type:text"`
}

func (CardRuling) TableName() string { return "card_rulings" }

type CardForeignData struct {
	CardUUID     string  `gorm:"primaryKey;column:card_uuid;size:36"`
	Seq          int     `gorm:"primaryKey;column:seq;autoIncrement:false"`
	Language     *string `gorm:"size:64"`
	Name         *string
	Text         *string `gorm:"type:text"`
	Type         *string
	FlavorText   *string `gorm:"type:text"`
	MultiverseID *int    `gorm:"column:multiverse_id"`
}

func (CardForeignData) TableName() string { return "card_foreign_data" }

type CardLegality struct {
	CardUUID string `gorm:"primaryKey;column:card_uuid;size:36"`
	Seq      int    `gorm:"primaryKey;column:seq;autoIncrement:false"`
	Format   string `gorm:"size:64;not null"`
	Status   string `gorm:"size:32;not null"`
}

func (CardLegality) TableName() string { return "card_legalities" }

type CardPrice struct {
	CardUUID string `gorm:"primaryKey;column:card_uuid;size:36"`
	Seq      int    `gorm:"primaryKey;column:seq;autoIncrement:false"`
	Type     string `gorm:"size:32;not null"`
	Date     string `gorm:"size:10;not null"`
	Price    *float64
}

func (CardPrice) TableName() string { return "card_prices" }

// CardListValue holds one element of a card's string list fields, the list
// being named by Field ("colors", "printings", ...).
type CardListValue struct {
	CardUUID string `gorm:"primaryKey;column:card_uuid;size:36"`
	Field    string `gorm:"primaryKey;column:field;size:32"`
	Seq      int    `gorm:"primaryKey;column:seq;autoIncrement:false"`
	Value    string `gorm:"not null"`
}

func (CardListValue) TableName() string { return "card_list_values" }

type Token struct {
	UUID                   string  `gorm:"primaryKey;column:uuid;size:36"`
	SetCode                string  `gorm:"column:set_code;size:20;not null;index"`
	Name                   string  `gorm:"not null"`
	Number                 *string `gorm:"size:16"`
	Type                   *string
	Text                   *string `gorm:"type:text"`
	Power                  *string `gorm:"size:16"`
	Toughness              *string `gorm:"size:16"`
	Loyalty                *string `gorm:"size:16"`
	Layout                 *string `gorm:"size:32"`
	Side                   *string `gorm:"size:8"`
	DuelDeck               *string `gorm:"size:8"`
	Artist                 *string
	BorderColor            *string `gorm:"size:16"`
	Watermark              *string
	ScryfallID             *string `gorm:"column:scryfall_id;size:36"`
	ScryfallOracleID       *string `gorm:"column:scryfall_oracle_id;size:36"`
	ScryfallIllustrationID *string `gorm:"column:scryfall_illustration_id;size:36"`
	IsOnlineOnly           bool    `gorm:"not null"`

	Lists []TokenListValue `gorm:"foreignKey:TokenUUID;references:UUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Token) TableName() string { return "tokens" }

type TokenListValue struct {
	TokenUUID string `gorm:"primaryKey;column:token_uuid;size:36"`
	Field     string `gorm:"primaryKey;column:field;size:32"`
	Seq       int    `gorm:"primaryKey;column:seq;autoIncrement:false"`
	Value     string `gorm:"not null"`
}

func (TokenListValue) TableName() string { return "token_list_values" }

// Models returns the tables of the database, parents before children.
func Models() []any {
	return []any{
		&Set{},
		&SetTranslation{},
		&Card{},
		&CardRuling{},
		&CardForeignData{},
		&CardLegality{},
		&CardPrice{},
		&CardListValue{},
		&Token{},
		&TokenListValue{},
	}
}
