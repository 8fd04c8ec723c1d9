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
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/sftpdrive/pkg/config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	testUser     = "photos"
	testPassword = "secret"
)

// 🧪 testServer is an ssh server exposing an in-memory sftp filesystem
type testServer struct {
	host      string
	port      int
	hostKey   ssh.Signer
	clientKey ssh.PublicKey
}

func newSigner(t *testing.T) (ed25519.PrivateKey, ssh.Signer) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	return priv, signer
}

func startServer(t *testing.T, clientKey ssh.PublicKey) *testServer {
	t.Helper()
	_, hostKey := newSigner(t)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == testUser && string(pass) == testPassword {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
		PublicKeyCallback: func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if clientKey != nil && bytes.Equal(key.Marshal(), clientKey.Marshal()) {
				return nil, nil
			}
			return nil, fmt.Errorf("unknown public key for %q", c.User())
		},
	}
	cfg.AddHostKey(hostKey)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	handlers := sftp.InMemHandler()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, cfg, handlers)
		}
	}()

	return &testServer{
		host:      "127.0.0.1",
		port:      ln.Addr().(*net.TCPAddr).Port,
		hostKey:   hostKey,
		clientKey: clientKey,
	}
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig, handlers sftp.Handlers) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			return
		}
		go func(in <-chan *ssh.Request) {
			for req := range in {
				ok := req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
				req.Reply(ok, nil)
			}
		}(requests)

		server := sftp.NewRequestServer(channel, handlers)
		go func() {
			server.Serve()
			server.Close()
		}()
	}
}

func (s *testServer) config() config.TransferConfig {
	return config.TransferConfig{
		Kind:      "sftp",
		Host:      s.host,
		Port:      s.port,
		User:      testUser,
		Password:  testPassword,
		RemoteDir: "/out",
	}
}

// 🧪 seed writes files on the server through an established session
func seed(t *testing.T, c Client, dir string, files map[string]string) {
	t.Helper()
	raw := c.(*SFTPClient).client
	require.NoError(t, raw.MkdirAll(dir))
	for name, content := range files {
		f, err := raw.Create(JoinRemote(dir, name))
		require.NoError(t, err)
		_, err = io.WriteString(f, content)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
}

func TestSFTPRetrieve(t *testing.T) {
	ctx := testContext(t)
	srv := startServer(t, nil)

	client, err := New(ctx, srv.config())
	require.NoError(t, err)
	defer client.Close()

	seed(t, client, "/out", map[string]string{
		"datafile_20240101_120000.zip": "first",
		"datafile_20240102_120000.zip": "second",
		"ignore_me.zip":                "nope",
	})

	download := filepath.Join(t.TempDir(), "download")
	got, err := Retrieve(ctx, client, "/out", defaultPattern, download)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(download, "datafile_20240101_120000.zip"),
		filepath.Join(download, "datafile_20240102_120000.zip"),
	}, got)

	content, err := os.ReadFile(got[1])
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	remaining, err := client.List(ctx, "/out")
	require.NoError(t, err)
	assert.Equal(t, []string{"ignore_me.zip"}, remaining, "fetched archives should be deleted remotely")
}

func TestSFTPClientOperations(t *testing.T) {
	ctx := testContext(t)
	srv := startServer(t, nil)

	client, err := DialSFTP(ctx, srv.config())
	require.NoError(t, err)
	defer client.Close()

	seed(t, client, "/data/sub", map[string]string{"a.txt": "a"})

	t.Run("list_skips_directories", func(t *testing.T) {
		names, err := client.List(ctx, "/data")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("list_missing_dir", func(t *testing.T) {
		_, err := client.List(ctx, "/missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading remote dir")
	})

	t.Run("fetch_missing_file", func(t *testing.T) {
		local := filepath.Join(t.TempDir(), "x")
		err := client.Fetch(ctx, "/data/sub/missing.txt", local)
		require.Error(t, err)
		assert.NoFileExists(t, local)
	})

	t.Run("delete_missing_file", func(t *testing.T) {
		err := client.Delete(ctx, "/data/sub/missing.txt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "removing remote file")
	})

	t.Run("fetch_and_delete", func(t *testing.T) {
		local := filepath.Join(t.TempDir(), "a.txt")
		require.NoError(t, client.Fetch(ctx, "/data/sub/a.txt", local))
		require.NoError(t, client.Delete(ctx, "/data/sub/a.txt"))

		names, err := client.List(ctx, "/data/sub")
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestDialSFTPAuth(t *testing.T) {
	ctx := testContext(t)
	priv, clientSigner := newSigner(t)
	srv := startServer(t, clientSigner.PublicKey())

	dir := t.TempDir()
	writeKey := func(name string, block *pem.Block) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0600))
		return path
	}

	plain, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	plainPath := writeKey("id_plain", plain)

	protected, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte("open sesame"))
	require.NoError(t, err)
	protectedPath := writeKey("id_protected", protected)

	knownHostsPath := filepath.Join(dir, "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(fmt.Sprintf("%s:%d", srv.host, srv.port))}, srv.hostKey.PublicKey())
	require.NoError(t, os.WriteFile(knownHostsPath, []byte(line+"\n"), 0600))

	_, otherHost := newSigner(t)
	wrongHostsPath := filepath.Join(dir, "wrong_hosts")
	line = knownhosts.Line([]string{knownhosts.Normalize(fmt.Sprintf("%s:%d", srv.host, srv.port))}, otherHost.PublicKey())
	require.NoError(t, os.WriteFile(wrongHostsPath, []byte(line+"\n"), 0600))

	tests := []struct {
		name        string
		mutate      func(cfg *config.TransferConfig)
		wantErr     bool
		errContains string
	}{
		{
			name:   "password",
			mutate: func(cfg *config.TransferConfig) {},
		},
		{
			name: "private_key",
			mutate: func(cfg *config.TransferConfig) {
				cfg.Password = ""
				cfg.KeyFile = plainPath
			},
		},
		{
			name: "private_key_with_passphrase",
			mutate: func(cfg *config.TransferConfig) {
				cfg.Password = ""
				cfg.KeyFile = protectedPath
				cfg.KeyPassphrase = "open sesame"
			},
		},
		{
			name: "known_hosts_match",
			mutate: func(cfg *config.TransferConfig) {
				cfg.KnownHosts = knownHostsPath
			},
		},
		{
			name: "known_hosts_mismatch",
			mutate: func(cfg *config.TransferConfig) {
				cfg.KnownHosts = wrongHostsPath
			},
			wantErr:     true,
			errContains: "ssh handshake",
		},
		{
			name: "known_hosts_missing_file",
			mutate: func(cfg *config.TransferConfig) {
				cfg.KnownHosts = filepath.Join(dir, "nope")
			},
			wantErr:     true,
			errContains: "loading known_hosts",
		},
		{
			name: "wrong_password",
			mutate: func(cfg *config.TransferConfig) {
				cfg.Password = "guess"
			},
			wantErr:     true,
			errContains: "ssh handshake",
		},
		{
			name: "wrong_passphrase",
			mutate: func(cfg *config.TransferConfig) {
				cfg.Password = ""
				cfg.KeyFile = protectedPath
				cfg.KeyPassphrase = "wrong"
			},
			wantErr:     true,
			errContains: "parsing key file",
		},
		{
			name: "missing_key_file",
			mutate: func(cfg *config.TransferConfig) {
				cfg.KeyFile = filepath.Join(dir, "missing")
			},
			wantErr:     true,
			errContains: "reading key file",
		},
		{
			name: "no_credentials",
			mutate: func(cfg *config.TransferConfig) {
				cfg.Password = ""
			},
			wantErr:     true,
			errContains: "no ssh credentials configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := srv.config()
			tt.mutate(&cfg)

			client, err := DialSFTP(ctx, cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			defer client.Close()

			_, err = client.List(ctx, "/")
			require.NoError(t, err, "session should be usable")
		})
	}
}

func TestDialSFTPUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, err = DialSFTP(testContext(t), config.TransferConfig{
		Host:     "127.0.0.1",
		Port:     port,
		User:     testUser,
		Password: testPassword,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialing")
}
