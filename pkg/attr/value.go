package attr

import "fmt"

// Kind identifies the populated tag of a wire value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindN
	KindS
	KindBOOL
	KindNULL
	KindL
	KindM
	KindSS
	KindNS
	KindB
	KindBS
)

var kindTags = [...]string{
	KindInvalid: "",
	KindN:       "N",
	KindS:       "S",
	KindBOOL:    "BOOL",
	KindNULL:    "NULL",
	KindL:       "L",
	KindM:       "M",
	KindSS:      "SS",
	KindNS:      "NS",
	KindB:       "B",
	KindBS:      "BS",
}

// String returns the wire tag of k.
func (k Kind) String() string {
	if int(k) < len(kindTags) && k != KindInvalid {
		return kindTags[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindOf maps a wire tag back to its Kind.
func KindOf(tag string) (Kind, bool) {
	for k, t := range kindTags {
		if t != "" && t == tag {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// Value is a single wire value with exactly one tag populated.
// The set of implementations is closed.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Number    string
	String    string
	Bool      bool
	Null      struct{}
	List      []Value
	Map       map[string]Value
	StringSet []string
	NumberSet []string
	Binary    []byte
	BinarySet [][]byte
)

// Item is a top-level record: the payload of an M value.
type Item map[string]Value

func (Number) Kind() Kind    { return KindN }
func (String) Kind() Kind    { return KindS }
func (Bool) Kind() Kind      { return KindBOOL }
func (Null) Kind() Kind      { return KindNULL }
func (List) Kind() Kind      { return KindL }
func (Map) Kind() Kind       { return KindM }
func (StringSet) Kind() Kind { return KindSS }
func (NumberSet) Kind() Kind { return KindNS }
func (Binary) Kind() Kind    { return KindB }
func (BinarySet) Kind() Kind { return KindBS }

func (Number) isValue()    {}
func (String) isValue()    {}
func (Bool) isValue()      {}
func (Null) isValue()      {}
func (List) isValue()      {}
func (Map) isValue()       {}
func (StringSet) isValue() {}
func (NumberSet) isValue() {}
func (Binary) isValue()    {}
func (BinarySet) isValue() {}

var (
	_ Value = Number("")
	_ Value = String("")
	_ Value = Bool(false)
	_ Value = Null{}
	_ Value = List(nil)
	_ Value = Map(nil)
	_ Value = StringSet(nil)
	_ Value = NumberSet(nil)
	_ Value = Binary(nil)
	_ Value = BinarySet(nil)
)
