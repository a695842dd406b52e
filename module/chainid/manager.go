package chainid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/utils/io"
)

// FileName is the name of the file holding the chain id inside the data directory.
const FileName = "block-chain-id"

// FileManager keeps the block chain id in a file under the data directory.
type FileManager struct {
	mu   sync.Mutex
	path string
}

var _ module.ChainIDManager = (*FileManager)(nil)

func NewFileManager(dataDir string) *FileManager {
	return &FileManager{path: filepath.Join(dataDir, FileName)}
}

func (m *FileManager) SaveBlockChainID(blockID ledger.Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := io.WriteFile(m.path, []byte(blockID.String()))
	if err != nil {
		return fmt.Errorf("could not save block chain id: %w", err)
	}
	return nil
}

// BlockChainID returns the stored chain id. The boolean is false if none was saved yet.
func (m *FileManager) BlockChainID() (ledger.Identifier, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return ledger.ZeroID, false, nil
	}
	if err != nil {
		return ledger.ZeroID, false, fmt.Errorf("could not read block chain id: %w", err)
	}

	id, err := ledger.HexStringToIdentifier(strings.TrimSpace(string(data)))
	if err != nil {
		return ledger.ZeroID, false, fmt.Errorf("malformed block chain id in %s: %w", m.path, err)
	}
	return id, true, nil
}
