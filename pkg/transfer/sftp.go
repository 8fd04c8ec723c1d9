// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transfer

import (
	"context"
	"io"
	"net"
	"os"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"github.com/walteh/sftpdrive/pkg/config"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func init() {
	Register("sftp", DialSFTP)
}

// 🔐 SFTPClient reads archives from an SFTP server
type SFTPClient struct {
	client *sftp.Client
	conn   io.Closer // underlying ssh connection, may be nil
}

var _ Client = (*SFTPClient)(nil)

// NewSFTPClient wraps an established sftp session. conn, when set, is closed
// after the session.
func NewSFTPClient(client *sftp.Client, conn io.Closer) *SFTPClient {
	return &SFTPClient{client: client, conn: conn}
}

// 🔌 DialSFTP opens an ssh connection and starts an sftp session on it
func DialSFTP(ctx context.Context, cfg config.TransferConfig) (Client, error) {
	logger := zerolog.Ctx(ctx)

	sshConfig, err := clientConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	addr := cfg.Addr()
	var dialer net.Dialer
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Errorf("dialing %s: %w", addr, err)
	}

	c, chans, reqs, err := ssh.NewClientConn(netConn, addr, sshConfig)
	if err != nil {
		netConn.Close()
		return nil, errors.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(c, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, errors.Errorf("starting sftp session: %w", err)
	}

	logger.Info().Str("host", addr).Str("user", cfg.User).Msg("connected to sftp server")
	return NewSFTPClient(client, sshClient), nil
}

// clientConfig builds the ssh auth and host key settings. Public key auth is
// offered before password auth.
func clientConfig(ctx context.Context, cfg config.TransferConfig) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if cfg.KeyFile != "" {
		pem, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, errors.Errorf("reading key file: %w", err)
		}
		var signer ssh.Signer
		if cfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(cfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(pem)
		}
		if err != nil {
			return nil, errors.Errorf("parsing key file: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, errors.Errorf("no ssh credentials configured")
	}

	hostKey, err := hostKeyCallback(ctx, cfg.KnownHosts)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
	}, nil
}

func hostKeyCallback(ctx context.Context, knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		zerolog.Ctx(ctx).Warn().Msg("no known_hosts configured; host key is not verified")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, errors.Errorf("loading known_hosts: %w", err)
	}
	return cb, nil
}

// 📂 List returns the names of the regular files in dir
func (c *SFTPClient) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	entries, err := c.client.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("reading remote dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Mode().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// 📥 Fetch copies remotePath to localPath. A partial local file is removed on
// failure.
func (c *SFTPClient) Fetch(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	src, err := c.client.Open(remotePath)
	if err != nil {
		return errors.Errorf("opening remote file: %w", err)
	}
	defer src.Close()

	return writeLocal(src, localPath)
}

// 🗑️ Delete removes remotePath from the server
func (c *SFTPClient) Delete(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := c.client.Remove(remotePath); err != nil {
		return errors.Errorf("removing remote file: %w", err)
	}
	return nil
}

// Close ends the sftp session and the ssh connection beneath it.
func (c *SFTPClient) Close() error {
	err := c.client.Close()
	if c.conn != nil {
		if cerr := c.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return errors.Errorf("closing sftp client: %w", err)
	}
	return nil
}

// writeLocal streams r into a new file at path.
func writeLocal(r io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return errors.Errorf("creating local file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return errors.Errorf("copying file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return errors.Errorf("closing local file: %w", err)
	}
	return nil
}
