// 包 cachetest：测试用的最小 RESP 服务端，只实现 GET / SET / PING，其余命令一律 +OK
package cachetest

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

type Server struct {
	ln   net.Listener
	mu   sync.Mutex
	data map[string]string
}

// StartRedis 在回环地址上启动服务端，并返回连向它的客户端；测试结束时自动关闭
func StartRedis(t testing.TB) (*redis.Client, *Server) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{ln: ln, data: make(map[string]string)}
	go s.serve()
	rc := redis.NewClient(&redis.Options{Addr: ln.Addr().String()})
	t.Cleanup(func() {
		_ = rc.Close()
		_ = ln.Close()
	})
	return rc, s
}

// Put 直接写入原始值
func (s *Server) Put(key, val string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = val
}

// Keys 返回已排序的全部键
func (s *Server) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	br := bufio.NewReader(conn)
	for {
		args, err := readCommand(br)
		if err != nil {
			return
		}
		if _, err := io.WriteString(conn, s.reply(args)); err != nil {
			return
		}
	}
}

func (s *Server) reply(args []string) string {
	if len(args) == 0 {
		return "-ERR empty command\r\n"
	}
	switch strings.ToUpper(args[0]) {
	case "HELLO":
		// 拒绝 RESP3 握手，客户端回退到 RESP2
		return "-ERR unknown command 'HELLO'\r\n"
	case "PING":
		return "+PONG\r\n"
	case "GET":
		if len(args) < 2 {
			return "-ERR wrong number of arguments for 'get'\r\n"
		}
		s.mu.Lock()
		v, ok := s.data[args[1]]
		s.mu.Unlock()
		if !ok {
			return "$-1\r\n"
		}
		return fmt.Sprintf("$%d\r\n%s\r\n", len(v), v)
	case "SET":
		if len(args) < 3 {
			return "-ERR wrong number of arguments for 'set'\r\n"
		}
		s.Put(args[1], args[2])
		return "+OK\r\n"
	default:
		return "+OK\r\n"
	}
}

// readCommand 读取一条 RESP 数组形式的命令
func readCommand(br *bufio.Reader) ([]string, error) {
	n, err := readLen(br, '*')
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l, err := readLen(br, '$')
		if err != nil {
			return nil, err
		}
		buf := make([]byte, l+2)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:l]))
	}
	return args, nil
}

func readLen(br *bufio.Reader, prefix byte) (int, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return 0, err
	}
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("unexpected line %q", line)
	}
	return strconv.Atoi(line[1:])
}
