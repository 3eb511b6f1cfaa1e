package mylisp

import (
	"strconv"
	"strings"
)

// Read converts one parse tree node into a Value.
func Read(n *Node) Value {
	if strings.Contains(n.Tag, "number") {
		return readNum(n)
	}
	if strings.Contains(n.Tag, "symbol") {
		return SymVal(n.Contents)
	}

	// Root, sexpression and anything unrecognised read as S-expressions.
	x := SExprVal()
	if strings.Contains(n.Tag, "qexpression") {
		x = QExprVal()
	}

	for _, c := range n.Children {
		switch c.Contents {
		case "(", ")", "{", "}":
			continue
		}
		if c.Tag == TagRegex {
			continue
		}
		x.add(Read(c))
	}
	return x
}

func readNum(n *Node) Value {
	x, err := strconv.ParseInt(n.Contents, 10, 64)
	if err != nil {
		return Errorf(ErrInvalidNumber, "invalid number: %s", n.Contents)
	}
	return NumVal(x)
}

// ReadString parses input and reads the root into an S-expression.
func ReadString(input string) (Value, error) {
	root, err := Parse("<stdin>", input)
	if err != nil {
		return Value{}, err
	}
	return Read(root), nil
}
