package filesystem

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Exported variables.
var (
	ErrNoAuthMethods = errors.New("no SSH authentication methods available (tried SSH agent and default keys)")
)

// SFTPConnection holds an SSH connection and the SFTP session on top of it.
type SFTPConnection struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	endpoint   string
}

// Connect dials host:port as user, authenticating with the SSH agent and the
// default key files. Host keys are checked against ~/.ssh/known_hosts when it exists.
func Connect(host string, port int, user string) (*SFTPConnection, error) {
	authMethods := sshAuthMethods()
	if len(authMethods) == 0 {
		return nil, ErrNoAuthMethods
	}

	hostKeyCallback, err := hostKeyCallback()
	if err != nil {
		return nil, err
	}

	endpoint := net.JoinHostPort(host, strconv.Itoa(port))

	sshClient, err := ssh.Dial("tcp", endpoint, &ssh.ClientConfig{
		User:            user,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
	})
	if err != nil {
		return nil, fmt.Errorf("SSH connection to %s failed: %w", endpoint, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("SFTP session creation failed: %w", err)
	}

	return &SFTPConnection{
		sshClient:  sshClient,
		sftpClient: sftpClient,
		endpoint:   user + "@" + endpoint,
	}, nil
}

// Client returns the SFTP client.
func (c *SFTPConnection) Client() *sftp.Client {
	return c.sftpClient
}

// Close closes the SFTP session and then the SSH connection.
func (c *SFTPConnection) Close() error {
	var errs []error

	if c.sftpClient != nil {
		errs = append(errs, c.sftpClient.Close())
	}

	if c.sshClient != nil {
		errs = append(errs, c.sshClient.Close())
	}

	return errors.Join(errs...)
}

// String returns user@host:port.
func (c *SFTPConnection) String() string {
	return c.endpoint
}

func hostKeyCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // No home directory means no known_hosts to check against
	}

	knownHostsPath := filepath.Join(home, ".ssh", "known_hosts")
	if _, err := os.Stat(knownHostsPath); err != nil {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // Same behavior as a first connection with ssh
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", knownHostsPath, err)
	}

	return callback, nil
}

// sshAuthMethods returns the agent first, then any unencrypted default keys.
func sshAuthMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" {
		if conn, err := net.Dial("unix", socket); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return methods
	}

	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		keyData, err := os.ReadFile(filepath.Join(home, ".ssh", name)) //nolint:gosec // Fixed key file names
		if err != nil {
			continue
		}

		// Passphrase-protected keys are left to the agent.
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			continue
		}

		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods
}
