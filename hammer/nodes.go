package hammer

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

func mapping(kvs ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: kvs}
}

func flowMapping(kvs ...*yaml.Node) *yaml.Node {
	n := mapping(kvs...)
	n.Style = yaml.FlowStyle

	return n
}

func seq(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: items}
}

func flowSeq(items ...*yaml.Node) *yaml.Node {
	n := seq(items...)
	n.Style = yaml.FlowStyle

	return n
}

func strSeq(values []string) *yaml.Node {
	n := flowSeq()
	for _, v := range values {
		n.Content = append(n.Content, str(v))
	}

	return n
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// quoted forces a string that would otherwise read as a number or bool.
func quoted(v string) *yaml.Node {
	n := str(v)
	n.Style = yaml.DoubleQuotedStyle

	return n
}

func integer(v int) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!int",
		Value: strconv.Itoa(v),
	}
}

func alias(anchor *yaml.Node) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.AliasNode,
		Value: anchor.Anchor,
		Alias: anchor,
	}
}

// kv returns the key and value nodes of one mapping entry.
func kv(key string, value *yaml.Node) []*yaml.Node {
	return []*yaml.Node{str(key), value}
}

func entries(pairs ...[]*yaml.Node) []*yaml.Node {
	var content []*yaml.Node
	for _, p := range pairs {
		content = append(content, p...)
	}

	return content
}
