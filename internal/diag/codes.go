package diag

import (
	"fmt"
)

// Code identifies a diagnostic category. Ranges mirror the pipeline:
// 1000 lexical, 2000 syntax, 3000 type inference, 4000 I/O, 5000 project,
// 9000 internal.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical diagnostics.
	LexInvalidChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexInvalidNumber      Code = 1003

	// Syntax diagnostics.
	ParseUnexpectedToken Code = 2001
	ParseExpectedToken   Code = 2002
	ParseExpectedExpr    Code = 2003
	ParseExpectedType    Code = 2004

	// Inference diagnostics.
	InferInfo              Code = 3000
	InferUnknownIdentifier Code = 3001
	InferTypeMismatch      Code = 3002
	InferInfiniteType      Code = 3003
	InferAmbiguousType     Code = 3004
	InferArityMismatch     Code = 3005
	InferNotCallable       Code = 3006
	InferNotIterable       Code = 3007
	InferNotIndexable      Code = 3008
	InferUnknownField      Code = 3009
	InferUnknownStruct     Code = 3010
	InferInvalidOperand    Code = 3011
	InferDuplicateField    Code = 3012

	// I/O diagnostics.
	IOLoadFileError Code = 4001

	// Project diagnostics.
	ProjInfo            Code = 5000
	ProjDuplicateModule Code = 5001
	ProjInvalidManifest Code = 5002

	// Internal invariant violations. Never user-facing: the driver turns
	// these into a fatal error instead of adding them to a bag.
	InternalError Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	LexInvalidChar:         "Invalid character",
	LexUnterminatedString:  "Unterminated string literal",
	LexInvalidNumber:       "Invalid numeric literal",
	ParseUnexpectedToken:   "Unexpected token",
	ParseExpectedToken:     "Expected token",
	ParseExpectedExpr:      "Expected an expression",
	ParseExpectedType:      "Expected a type",
	InferInfo:              "Inference information",
	InferUnknownIdentifier: "Unknown identifier",
	InferTypeMismatch:      "Type mismatch",
	InferInfiniteType:      "Infinite type",
	InferAmbiguousType:     "Ambiguous type",
	InferArityMismatch:     "Arity mismatch",
	InferNotCallable:       "Expression is not callable",
	InferNotIterable:       "Expression is not iterable",
	InferNotIndexable:      "Expression is not indexable",
	InferUnknownField:      "Unknown field",
	InferUnknownStruct:     "Unknown struct type",
	InferInvalidOperand:    "Invalid operand",
	InferDuplicateField:    "Duplicate field",
	IOLoadFileError:        "I/O load file error",
	ProjInfo:               "Project information",
	ProjDuplicateModule:    "Duplicate module definition",
	ProjInvalidManifest:    "Invalid project manifest",
	InternalError:          "Internal compiler error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
