// Package template holds the fixed consent text and the closed set of
// placeholder tokens it may contain.
package template

import (
	"strings"
	"time"

	"termo/internal/document/layout"
)

// Token is a placeholder written literally into the consent text.
type Token string

const (
	ParticipantName Token = "{NOME_FILHO}"
	GuardianName    Token = "{NOME_RESPONSAVEL}"
	ContactName     Token = "{CONTATO_NOME}"
	ContactPhone    Token = "{CONTATO_TELEFONE}"
	Date            Token = "{DATA}"
)

// Tokens lists every supported token. Anything else in braces is left as is.
var Tokens = []Token{ParticipantName, GuardianName, ContactName, ContactPhone, Date}

// DateFormat renders the {DATA} token as DD/MM/YYYY.
const DateFormat = "02/01/2006"

// Values maps tokens to their resolved text.
type Values map[Token]string

// Fields is the data a consent document is filled with.
type Fields struct {
	ParticipantName string
	GuardianName    string
	ContactName     string
	ContactPhone    string
	Date            time.Time
}

// Values resolves every token for f.
func (f Fields) Values() Values {
	return Values{
		ParticipantName: f.ParticipantName,
		GuardianName:    f.GuardianName,
		ContactName:     f.ContactName,
		ContactPhone:    f.ContactPhone,
		Date:            f.Date.Format(DateFormat),
	}
}

// Substitute replaces every occurrence of each known token present in v in a
// single pass, so resolved values are never substituted again. Tokens missing
// from v and unknown tokens are left verbatim.
func Substitute(text string, v Values) string {
	pairs := make([]string, 0, 2*len(Tokens))
	for _, tok := range Tokens {
		if value, ok := v[tok]; ok {
			pairs = append(pairs, string(tok), value)
		}
	}
	if len(pairs) == 0 {
		return text
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

const (
	Title    = "TERMO DE RESPONSABILIDADE E AUTORIZAÇÃO"
	Subtitle = "ACAMP RELEVANTE JUNIORS 2025"
	Trailer  = "Campo Grande/MS, " + string(Date)
)

var paragraphs = []string{
	"Eu, {NOME_RESPONSAVEL}, responsável pelo(a) menor {NOME_FILHO}, autorizo sua participação no ACAMP RELEVANTE JUNIORS 2025, que será realizado nos dias 24 a 26 de janeiro de 2025, no Sítio Bela Vista, localizado na Estrada Parque, s/n, Jardim Anache, Campo Grande/MS.",
	"Declaro estar ciente de que o evento envolve atividades recreativas, esportivas e educativas, e que meu(minha) filho(a) participará sob minha total responsabilidade.",
	"Autorizo a coordenação do evento a tomar as medidas necessárias em caso de emergência médica, incluindo o transporte para unidade de saúde e a realização de procedimentos médicos de urgência, caso não seja possível o contato imediato comigo.",
	"Declaro que meu(minha) filho(a) não possui restrições médicas que impeçam sua participação nas atividades programadas. Caso possua alguma condição especial, comprometo-me a informar previamente à coordenação.",
	"Autorizo o uso da imagem de meu(minha) filho(a) em fotografias e vídeos realizados durante o evento, para fins de divulgação institucional da igreja, sem fins lucrativos.",
	"Comprometo-me a buscar meu(minha) filho(a) pontualmente no horário estabelecido para o término do evento. Em caso de atraso, assumo total responsabilidade.",
	"Em caso de ausência, autorizo a coordenação do ACAMP RELEVANTE JUNIORS 2025 a entrar em contato com a seguinte pessoa: NOME: {CONTATO_NOME} TELEFONE: {CONTATO_TELEFONE}",
	"Declaro que li e compreendi todos os termos acima, concordando integralmente com as condições estabelecidas. Isento a organização do evento de qualquer responsabilidade por danos pessoais ou materiais, desde que comprovada a responsabilidade do meu(minha) filho(a) no ocorrido.",
}

// Paragraphs returns a copy of the raw consent paragraphs, tokens unresolved.
func Paragraphs() []string {
	out := make([]string, len(paragraphs))
	copy(out, paragraphs)
	return out
}

// Consent returns the consent document with every token resolved from v.
func Consent(v Values) layout.Content {
	body := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		body[i] = Substitute(p, v)
	}
	return layout.Content{
		Title:      Title,
		Subtitle:   Subtitle,
		Paragraphs: body,
		Trailer:    Substitute(Trailer, v),
	}
}
