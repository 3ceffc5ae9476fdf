package mapper

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/omfgitsmark/mtgsqlive/internal/data"
	"github.com/omfgitsmark/mtgsqlive/internal/mtgjson"
)

// The From*Model functions invert the mapping: given a model with its list
// associations loaded they rebuild the nested record. Empty and absent
// lists both come back as nil.

// SetFromModel rebuilds a set header. Cards and tokens are not attached.
func SetFromModel(ds *data.Set) *mtgjson.Set {
	s := &mtgjson.Set{
		Code:             ds.Code,
		Name:             ds.Name,
		ReleaseDate:      ds.ReleaseDate,
		Type:             ds.Type,
		Block:            ds.Block,
		BaseSetSize:      ds.BaseSetSize,
		TotalSetSize:     ds.TotalSetSize,
		ParentCode:       ds.ParentCode,
		MtgoCode:         ds.MtgoCode,
		CodeV3:           ds.CodeV3,
		KeyruneCode:      ds.KeyruneCode,
		McmID:            ds.McmID,
		McmName:          ds.McmName,
		TcgplayerGroupID: ds.TcgplayerGroupID,
		IsFoilOnly:       ds.IsFoilOnly,
		IsForeignOnly:    ds.IsForeignOnly,
		IsOnlineOnly:     ds.IsOnlineOnly,
		IsPartialPreview: ds.IsPartialPreview,
	}
	if len(ds.BoosterV3) > 0 {
		s.BoosterV3 = json.RawMessage(ds.BoosterV3)
	}
	if ds.MetaDate != nil || ds.MetaPricesDate != nil || ds.MetaVersion != nil {
		s.Meta = &mtgjson.Meta{Date: ds.MetaDate, PricesDate: ds.MetaPricesDate, Version: ds.MetaVersion}
	}

	for _, tr := range sortedBySeq(ds.Translations, func(tr data.SetTranslation) int { return tr.Seq }) {
		s.Translations = append(s.Translations, mtgjson.Translation{Language: tr.Language, Name: tr.Translation})
	}
	return s
}

// CardFromModel rebuilds a card. UUID is always set to the stored key.
func CardFromModel(dc *data.Card) *mtgjson.Card {
	c := &mtgjson.Card{
		UUID:                   dc.UUID,
		SetCode:                dc.SetCode,
		Name:                   dc.Name,
		Number:                 dc.Number,
		Rarity:                 dc.Rarity,
		Text:                   dc.Text,
		FlavorText:             dc.FlavorText,
		OriginalText:           dc.OriginalText,
		OriginalType:           dc.OriginalType,
		ManaCost:               dc.ManaCost,
		ConvertedManaCost:      dc.ConvertedManaCost,
		FaceConvertedManaCost:  dc.FaceConvertedManaCost,
		Type:                   dc.Type,
		Layout:                 dc.Layout,
		Artist:                 dc.Artist,
		Power:                  dc.Power,
		Toughness:              dc.Toughness,
		Loyalty:                dc.Loyalty,
		Hand:                   dc.Hand,
		Life:                   dc.Life,
		BorderColor:            dc.BorderColor,
		FrameVersion:           dc.FrameVersion,
		Watermark:              dc.Watermark,
		Side:                   dc.Side,
		DuelDeck:               dc.DuelDeck,
		MultiverseID:           dc.MultiverseID,
		MtgoID:                 dc.MtgoID,
		MtgArenaID:             dc.MtgArenaID,
		EdhrecRank:             dc.EdhrecRank,
		TcgplayerProductID:     dc.TcgplayerProductID,
		ScryfallID:             dc.ScryfallID,
		ScryfallOracleID:       dc.ScryfallOracleID,
		ScryfallIllustrationID: dc.ScryfallIllustrationID,
		FrameEffect:            dc.FrameEffect,
		McmID:                  dc.McmID,
		McmMetaID:              dc.McmMetaID,
		McmName:                dc.McmName,
		MtgoFoilID:             dc.MtgoFoilID,
		MtgstocksID:            dc.MtgstocksID,
		TcgplayerPurchaseURL:   dc.TcgplayerPurchaseURL,
		HasFoil:                dc.HasFoil,
		HasNoDeckLimit:         dc.HasNoDeckLimit,
		HasNonFoil:             dc.HasNonFoil,
		IsAlternative:          dc.IsAlternative,
		IsArena:                dc.IsArena,
		IsFullArt:              dc.IsFullArt,
		IsMtgo:                 dc.IsMtgo,
		IsOnlineOnly:           dc.IsOnlineOnly,
		IsOversized:            dc.IsOversized,
		IsPaper:                dc.IsPaper,
		IsPromo:                dc.IsPromo,
		IsReprint:              dc.IsReprint,
		IsReserved:             dc.IsReserved,
		IsStarter:              dc.IsStarter,
		IsStorySpotlight:       dc.IsStorySpotlight,
		IsTextless:             dc.IsTextless,
		IsTimeshifted:          dc.IsTimeshifted,
	}

	if len(dc.LeadershipSkills) > 0 {
		c.LeadershipSkills = json.RawMessage(dc.LeadershipSkills)
	}
	if len(dc.PurchaseURLs) > 0 {
		c.PurchaseURLs = json.RawMessage(dc.PurchaseURLs)
	}

	for _, r := range sortedBySeq(dc.Rulings, func(r data.CardRuling) int { return r.Seq }) {
		c.Rulings = append(c.Rulings, mtgjson.Ruling{Date: r.Date, Text: r.Text})
	}
	for _, f := range sortedBySeq(dc.ForeignData, func(f data.CardForeignData) int { return f.Seq }) {
		c.ForeignData = append(c.ForeignData, mtgjson.ForeignData{
			Language:     f.Language,
			Name:         f.Name,
			Text:         f.Text,
			Type:         f.Type,
			FlavorText:   f.FlavorText,
			MultiverseID: f.MultiverseID,
		})
	}
	for _, l := range sortedBySeq(dc.Legalities, func(l data.CardLegality) int { return l.Seq }) {
		c.Legalities = append(c.Legalities, mtgjson.Legality{Format: l.Format, Status: l.Status})
	}
	for _, p := range sortedBySeq(dc.Prices, func(p data.CardPrice) int { return p.Seq }) {
		c.Prices = append(c.Prices, mtgjson.PricePoint{Type: p.Type, Date: p.Date, Price: p.Price})
	}

	values := sortedBySeq(dc.Lists, func(v data.CardListValue) int { return v.Seq })
	for _, list := range cardLists(c) {
		for _, v := range values {
			if v.Field == list.field {
				*list.values = append(*list.values, v.Value)
			}
		}
	}
	return c
}

// TokenFromModel rebuilds a token. UUID is always set to the stored key.
func TokenFromModel(dt *data.Token) *mtgjson.Token {
	t := &mtgjson.Token{
		UUID:                   dt.UUID,
		SetCode:                dt.SetCode,
		Name:                   dt.Name,
		Number:                 dt.Number,
		Type:                   dt.Type,
		Text:                   dt.Text,
		Power:                  dt.Power,
		Toughness:              dt.Toughness,
		Loyalty:                dt.Loyalty,
		Layout:                 dt.Layout,
		Side:                   dt.Side,
		DuelDeck:               dt.DuelDeck,
		Artist:                 dt.Artist,
		BorderColor:            dt.BorderColor,
		Watermark:              dt.Watermark,
		ScryfallID:             dt.ScryfallID,
		ScryfallOracleID:       dt.ScryfallOracleID,
		ScryfallIllustrationID: dt.ScryfallIllustrationID,
		IsOnlineOnly:           dt.IsOnlineOnly,
	}

	values := sortedBySeq(dt.Lists, func(v data.TokenListValue) int { return v.Seq })
	for _, list := range tokenLists(t) {
		for _, v := range values {
			if v.Field == list.field {
				*list.values = append(*list.values, v.Value)
			}
		}
	}
	return t
}

func sortedBySeq[T any](rows []T, seq func(T) int) []T {
	return slices.SortedStableFunc(slices.Values(rows), func(a, b T) int {
		return cmp.Compare(seq(a), seq(b))
	})
}
