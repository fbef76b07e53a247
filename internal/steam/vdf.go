package steam

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Binary VDF node markers.
const (
	nodeMap    byte = 0x00
	nodeString byte = 0x01
	nodeInt    byte = 0x02
	nodeEnd    byte = 0x08
)

// ErrMalformed reports a shortcuts file that does not follow the binary VDF
// layout.
var ErrMalformed = errors.New("malformed shortcuts file")

type node struct {
	kind     byte
	str      string
	num      uint32
	children []field
}

type field struct {
	key string
	val node
}

func (n node) get(key string) (node, bool) {
	for _, f := range n.children {
		if strings.EqualFold(f.key, key) {
			return f.val, true
		}
	}
	return node{}, false
}

// Decode parses a binary shortcuts.vdf payload. An empty payload decodes to no
// shortcuts.
func Decode(data []byte) ([]Shortcut, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	r := bufio.NewReader(bytes.NewReader(data))
	root, err := readChildren(r)
	if err != nil {
		return nil, err
	}
	list, ok := root.get("shortcuts")
	if !ok || list.kind != nodeMap {
		return nil, fmt.Errorf("%w: no shortcuts section", ErrMalformed)
	}

	shortcuts := make([]Shortcut, 0, len(list.children))
	for _, f := range list.children {
		if f.val.kind != nodeMap {
			continue
		}
		shortcuts = append(shortcuts, shortcutFromNode(f.val))
	}
	return shortcuts, nil
}

// readChildren reads map fields up to the map's end marker. Every map,
// including the root, must be closed; input that ends first is truncated.
func readChildren(r *bufio.Reader) (node, error) {
	n := node{kind: nodeMap}
	for {
		kind, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, fmt.Errorf("%w: truncated before end of map", ErrMalformed)
			}
			return n, err
		}
		if kind == nodeEnd {
			return n, nil
		}
		key, err := readCString(r)
		if err != nil {
			return n, err
		}
		var val node
		switch kind {
		case nodeMap:
			val, err = readChildren(r)
		case nodeString:
			var s string
			s, err = readCString(r)
			val = node{kind: nodeString, str: s}
		case nodeInt:
			var buf [4]byte
			_, err = io.ReadFull(r, buf[:])
			val = node{kind: nodeInt, num: binary.LittleEndian.Uint32(buf[:])}
		default:
			return n, fmt.Errorf("%w: unknown node type 0x%02x", ErrMalformed, kind)
		}
		if err != nil {
			if errors.Is(err, ErrMalformed) {
				return n, fmt.Errorf("field %q: %w", key, err)
			}
			return n, fmt.Errorf("%w: field %q: %v", ErrMalformed, key, err)
		}
		n.children = append(n.children, field{key: key, val: val})
	}
}

func readCString(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0x00)
	if err != nil {
		return "", fmt.Errorf("%w: unterminated string", ErrMalformed)
	}
	return s[:len(s)-1], nil
}

func shortcutFromNode(n node) Shortcut {
	str := func(key string) string {
		if v, ok := n.get(key); ok && v.kind == nodeString {
			return v.str
		}
		return ""
	}
	num := func(key string) uint32 {
		if v, ok := n.get(key); ok && v.kind == nodeInt {
			return v.num
		}
		return 0
	}

	s := Shortcut{
		AppID:               num("appid"),
		AppName:             str("AppName"),
		Exe:                 str("Exe"),
		StartDir:            str("StartDir"),
		Icon:                str("icon"),
		ShortcutPath:        str("ShortcutPath"),
		LaunchOptions:       str("LaunchOptions"),
		IsHidden:            num("IsHidden") != 0,
		AllowDesktopConfig:  num("AllowDesktopConfig") != 0,
		AllowOverlay:        num("AllowOverlay") != 0,
		OpenVR:              num("OpenVR") != 0,
		Devkit:              num("Devkit") != 0,
		DevkitGameID:        str("DevkitGameID"),
		DevkitOverrideAppID: num("DevkitOverrideAppID"),
		LastPlayTime:        num("LastPlayTime"),
		FlatpakAppID:        str("FlatpakAppID"),
	}
	if tags, ok := n.get("tags"); ok && tags.kind == nodeMap {
		for _, t := range tags.children {
			if t.val.kind == nodeString {
				s.Tags = append(s.Tags, t.val.str)
			}
		}
	}
	if s.AppID == 0 {
		s.AppID = AppID(s.Exe, s.AppName)
	}
	return s
}

// Encode renders shortcuts in Steam's binary VDF layout.
func Encode(shortcuts []Shortcut) []byte {
	var buf bytes.Buffer
	buf.WriteByte(nodeMap)
	writeCString(&buf, "shortcuts")
	for i, s := range shortcuts {
		buf.WriteByte(nodeMap)
		writeCString(&buf, strconv.Itoa(i))

		writeInt(&buf, "appid", s.AppID)
		writeString(&buf, "AppName", s.AppName)
		writeString(&buf, "Exe", s.Exe)
		writeString(&buf, "StartDir", s.StartDir)
		writeString(&buf, "icon", s.Icon)
		writeString(&buf, "ShortcutPath", s.ShortcutPath)
		writeString(&buf, "LaunchOptions", s.LaunchOptions)
		writeInt(&buf, "IsHidden", boolInt(s.IsHidden))
		writeInt(&buf, "AllowDesktopConfig", boolInt(s.AllowDesktopConfig))
		writeInt(&buf, "AllowOverlay", boolInt(s.AllowOverlay))
		writeInt(&buf, "OpenVR", boolInt(s.OpenVR))
		writeInt(&buf, "Devkit", boolInt(s.Devkit))
		writeString(&buf, "DevkitGameID", s.DevkitGameID)
		writeInt(&buf, "DevkitOverrideAppID", s.DevkitOverrideAppID)
		writeInt(&buf, "LastPlayTime", s.LastPlayTime)
		writeString(&buf, "FlatpakAppID", s.FlatpakAppID)

		buf.WriteByte(nodeMap)
		writeCString(&buf, "tags")
		for j, tag := range s.Tags {
			writeString(&buf, strconv.Itoa(j), tag)
		}
		buf.WriteByte(nodeEnd)

		buf.WriteByte(nodeEnd)
	}
	buf.WriteByte(nodeEnd)
	buf.WriteByte(nodeEnd)
	return buf.Bytes()
}

func writeCString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0x00)
}

func writeString(buf *bytes.Buffer, key, val string) {
	buf.WriteByte(nodeString)
	writeCString(buf, key)
	writeCString(buf, val)
}

func writeInt(buf *bytes.Buffer, key string, val uint32) {
	buf.WriteByte(nodeInt)
	writeCString(buf, key)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], val)
	buf.Write(b[:])
}

func boolInt(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
