package ioblob

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ember-forge/pipeline/internal/status"
)

// YAMLBackend round-trips human-editable asset documents (.res, .shader),
// grounded on gazed-vu's load/shd.go YAML shader parsing.
type YAMLBackend struct{}

func (YAMLBackend) Parse(data []byte) (*Tree, error) {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, status.Wrap(status.FailedParse, err, "yaml parse")
	}
	root := fromGeneric("", generic)
	if root.Kind != KindMap && root.Kind != KindList {
		return nil, status.New(status.FailedParse, "yaml document root must be a map or list")
	}
	return &Tree{Root: root}, nil
}

func (YAMLBackend) Save(t *Tree) ([]byte, error) {
	generic := toGeneric(t.Root)
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, status.Wrap(status.FailedEncode, err, "yaml encode")
	}
	return out, nil
}

func fromGeneric(name string, v interface{}) *Node {
	switch tv := v.(type) {
	case map[string]interface{}:
		n := &Node{Kind: KindMap, Name: name}
		for k, val := range tv {
			n.Children = append(n.Children, fromGeneric(k, val))
		}
		return n
	case map[interface{}]interface{}:
		n := &Node{Kind: KindMap, Name: name}
		for k, val := range tv {
			n.Children = append(n.Children, fromGeneric(fmt.Sprintf("%v", k), val))
		}
		return n
	case []interface{}:
		n := &Node{Kind: KindList, Name: name}
		for _, val := range tv {
			n.Children = append(n.Children, fromGeneric("", val))
		}
		return n
	case bool:
		return &Node{Kind: KindBool, Name: name, Value: BoolValue(tv)}
	case int:
		return &Node{Kind: KindInt32, Name: name, Value: Int32Value(int32(tv))}
	case int64:
		return &Node{Kind: KindInt32, Name: name, Value: Int32Value(int32(tv))}
	case float64:
		return &Node{Kind: KindFloat, Name: name, Value: FloatValue(tv)}
	case string:
		return &Node{Kind: KindString, Name: name, Value: StringValue(tv)}
	case nil:
		return &Node{Kind: KindString, Name: name, Value: StringValue("")}
	default:
		return &Node{Kind: KindString, Name: name, Value: StringValue(fmt.Sprintf("%v", tv))}
	}
}

func toGeneric(n *Node) interface{} {
	switch n.Kind {
	case KindMap:
		m := make(map[string]interface{}, len(n.Children))
		for _, ch := range n.Children {
			m[ch.Name] = toGeneric(ch)
		}
		return m
	case KindList:
		l := make([]interface{}, len(n.Children))
		for i, ch := range n.Children {
			l[i] = toGeneric(ch)
		}
		return l
	case KindBool:
		return n.Value.Bool()
	case KindInt32:
		return int(n.Value.Int32())
	case KindUint32:
		return int64(n.Value.Uint32())
	case KindInt16:
		return int(n.Value.Int16())
	case KindUsize:
		return n.Value.Usize()
	case KindFloat:
		return n.Value.Float()
	case KindString, KindInternedString:
		return n.Value.String()
	default:
		return nil
	}
}
