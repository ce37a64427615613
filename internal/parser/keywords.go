package parser

var KEYWORDS = map[string]TokenType{
	"fn":       FUN,
	"let":      LET,
	"mut":      MUT,
	"if":       IF,
	"else":     ELSE,
	"return":   RETURN,
	"module":   MODULE,
	"use":      USE,
	"struct":   STRUCT,
	"enum":     ENUM,
	"trait":    TRAIT,
	"instance": INSTANCE,
	"for":      FOR,
	"implicit": IMPLICIT,
	"yield":    YIELD,
	"match":    MATCH,
	"self":     SELF,
	"true":     TRUE,
	"false":    FALSE,
	"_":        WILDCARD,
}
