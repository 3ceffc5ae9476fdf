package mtgjson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardDecodeSetAlias(t *testing.T) {
	var card Card
	err := json.Unmarshal([]byte(`{"name":"Shivan Dragon","set":"M10","rulings":[{"date":"2009-07-01","text":"..."}]}`), &card)
	require.NoError(t, err)

	assert.Equal(t, "Shivan Dragon", card.Name)
	assert.Equal(t, "M10", card.SetCode)
	require.Len(t, card.Rulings, 1)
	assert.Equal(t, "2009-07-01", *card.Rulings[0].Date)
	assert.Empty(t, card.UnknownFields())
}

func TestCardUnknownFields(t *testing.T) {
	var card Card
	err := json.Unmarshal([]byte(`{
		"name": "Llanowar Elves",
		"setCode": "M19",
		"frameEffects": ["legendary"],
		"rulings": [{"date": "2018-07-13", "text": "x"}, {"date": "2018-07-14", "text": "y", "source": "wotc"}],
		"foreignData": [{"language": "German", "name": "Elfen von Llanowar", "flavorName": "?"}],
		"identifiers": {"scryfallId": "x"}
	}`), &card)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"frameEffects",
		"identifiers",
		"rulings[1].source",
		"foreignData[0].flavorName",
	}, card.UnknownFields())
}

func TestCardMarketplaceFields(t *testing.T) {
	var card Card
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Shivan Dragon",
		"setCode": "M10",
		"frameEffect": "legendary",
		"hasNoDeckLimit": true,
		"leadershipSkills": {"brawl": false, "commander": false, "oathbreaker": false},
		"mcmId": 12,
		"mcmMetaId": 34,
		"mcmName": "Shivan Dragon",
		"mtgoFoilId": 35221,
		"mtgstocksId": 1522,
		"purchaseUrls": {"cardmarket": "https://mtgjson.com/links/1f2a"},
		"tcgplayerPurchaseUrl": "https://mtgjson.com/links/9a7e9ad8"
	}`), &card))

	assert.Empty(t, card.UnknownFields())
	assert.Equal(t, "legendary", *card.FrameEffect)
	assert.True(t, card.HasNoDeckLimit)
	assert.Equal(t, 34, *card.McmMetaID)
	assert.Equal(t, 35221, *card.MtgoFoilID)
	assert.JSONEq(t, `{"cardmarket": "https://mtgjson.com/links/1f2a"}`, string(card.PurchaseURLs))

	var token Token
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Elemental","setCode":"DD2","duelDeck":"b"}`), &token))
	assert.Empty(t, token.UnknownFields())
	assert.Equal(t, "b", *token.DuelDeck)
}

func TestCardMissingOptionalFields(t *testing.T) {
	var card Card
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Forest","setCode":"M19"}`), &card))

	assert.Nil(t, card.Number)
	assert.Nil(t, card.ConvertedManaCost)
	assert.Nil(t, card.Rulings)
	assert.Nil(t, card.Legalities)
	assert.False(t, card.IsPromo)
}

func TestLegalitiesKeepOrder(t *testing.T) {
	var l Legalities
	require.NoError(t, json.Unmarshal([]byte(`{"vintage":"Legal","commander":"Legal","standard":"Banned"}`), &l))

	assert.Equal(t, Legalities{
		{Format: "vintage", Status: "Legal"},
		{Format: "commander", Status: "Legal"},
		{Format: "standard", Status: "Banned"},
	}, l)

	out, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vintage":"Legal","commander":"Legal","standard":"Banned"}`, string(out))
	assert.Equal(t, `{"vintage":"Legal","commander":"Legal","standard":"Banned"}`, string(out))
}

func TestLegalitiesRejectNonString(t *testing.T) {
	var l Legalities
	err := json.Unmarshal([]byte(`{"vintage":1}`), &l)
	assert.ErrorContains(t, err, "legalities.vintage")
}

func TestPricesRoundTrip(t *testing.T) {
	in := `{"paper":{"2019-10-01":1.25,"2019-10-02":null},"mtgo":{"2019-10-01":0.02}}`
	var p Prices
	require.NoError(t, json.Unmarshal([]byte(in), &p))

	require.Len(t, p, 3)
	assert.Equal(t, "paper", p[0].Type)
	assert.Equal(t, "2019-10-01", p[0].Date)
	assert.InDelta(t, 1.25, *p[0].Price, 0)
	assert.Nil(t, p[1].Price)
	assert.Equal(t, "mtgo", p[2].Type)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestPricesEmptySeries(t *testing.T) {
	var p Prices
	require.NoError(t, json.Unmarshal([]byte(`{"paper":{"2019-10-01":1.25},"mtgo":null,"mtgoFoil":{}}`), &p))
	require.Len(t, p, 1)
	assert.Equal(t, "paper", p[0].Type)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"paper":{"2019-10-01":1.25}}`, string(out), "null and empty series have no rows to come back from")
}

func TestTranslationsNull(t *testing.T) {
	var tr Translations
	require.NoError(t, json.Unmarshal([]byte(`null`), &tr))
	assert.Nil(t, tr)

	require.NoError(t, json.Unmarshal([]byte(`{"French":"Édition de base","German":null}`), &tr))
	require.Len(t, tr, 2)
	assert.Equal(t, "Édition de base", *tr[0].Name)
	assert.Nil(t, tr[1].Name)
}

func TestSetUnknownMetaFields(t *testing.T) {
	var set Set
	require.NoError(t, json.Unmarshal([]byte(`{"code":"M10","meta":{"version":"4.6.0","build":"x"},"isFunny":true}`), &set))
	assert.Equal(t, []string{"isFunny", "meta.build"}, set.UnknownFields())
}

func TestCardRef(t *testing.T) {
	number := "136"
	assert.Equal(t, "abc", (&Card{UUID: "abc"}).Ref())
	assert.Equal(t, "M10 #136 Shivan Dragon", (&Card{SetCode: "M10", Number: &number, Name: "Shivan Dragon"}).Ref())
	assert.Equal(t, "M10 Shivan Dragon", (&Card{SetCode: "M10", Name: "Shivan Dragon"}).Ref())
}
