package vault

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/tobischo/gokeepasslib/v3"
	"go.uber.org/zap"
)

// Vault is an opened credential store.
type Vault struct {
	// Path is the file the vault was read from.
	Path string
	root *Group
}

// New wraps an already built tree.
func New(path string, root *Group) *Vault {
	return &Vault{Path: path, root: root}
}

// Root returns the root group.
func (v *Vault) Root() *Group {
	return v.root
}

// Open decodes a KeePass (kdbx) file with the given password.
func Open(path, password string, logger *zap.Logger) (*Vault, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	db := gokeepasslib.NewDatabase()
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	if err := gokeepasslib.NewDecoder(file).Decode(db); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := db.UnlockProtectedEntries(); err != nil {
		return nil, fmt.Errorf("failed to unlock protected values: %w", err)
	}

	root := FromKeePass(db.Content.Root.Groups, func(ref gokeepasslib.BinaryReference) ([]byte, bool) {
		bin := ref.Find(db)
		if bin == nil {
			return nil, false
		}
		content, err := bin.GetContentBytes()
		if err != nil {
			logger.Warn("failed to read attachment", zap.String("name", ref.Name), zap.Error(err))
			return nil, false
		}
		return content, true
	})

	logger.Debug("vault decoded", zap.String("path", path))
	return New(path, root), nil
}

// AttachmentFunc loads the content of a binary attachment.
type AttachmentFunc func(ref gokeepasslib.BinaryReference) ([]byte, bool)

// FromKeePass converts the top level groups of a KeePass database into a tree.
// A database normally has a single top level group, which becomes the root.
// Otherwise a nameless root is synthesized to hold them.
//
// Within a group, sub-groups come first and entries second, each in file order.
func FromKeePass(groups []gokeepasslib.Group, attachments AttachmentFunc) *Group {
	if len(groups) == 1 {
		return convertGroup(groups[0], attachments)
	}
	root := NewGroup(uuid.Nil, "")
	for _, g := range groups {
		root.Add(convertGroup(g, attachments))
	}
	return root
}

func convertGroup(g gokeepasslib.Group, attachments AttachmentFunc) *Group {
	group := NewGroup(uuid.UUID(g.UUID), g.Name)
	for _, sub := range g.Groups {
		group.Add(convertGroup(sub, attachments))
	}
	for _, e := range g.Entries {
		group.Add(convertEntry(e, attachments))
	}
	return group
}

func convertEntry(e gokeepasslib.Entry, attachments AttachmentFunc) *Entry {
	fields := make([]Field, 0, len(e.Values)+len(e.Binaries))
	for _, vd := range e.Values {
		value := PlainText(vd.Value.Content)
		if vd.Value.Protected.Bool {
			value = Secret(vd.Value.Content)
		}
		fields = append(fields, Field{Name: vd.Key, Value: value})
	}
	if attachments != nil {
		for _, ref := range e.Binaries {
			if content, ok := attachments(ref); ok {
				fields = append(fields, Field{Name: ref.Name, Value: Binary(content)})
			}
		}
	}
	return NewEntry(uuid.UUID(e.UUID), fields...)
}
