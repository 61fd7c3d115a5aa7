package llm

import (
	"bufio"
	"bytes"
	"io"
)

// sseLines reads Server-Sent Event `data: ...` lines from r and sends
// the raw payload (without the "data: " prefix) on the returned channel.
//
// bufio.Reader.ReadBytes('\n') is used instead of bufio.Scanner
// deliberately: Scanner's default token size caps lines at 64KB, which a
// single large tool-output delta or long assistant message can exceed.
// This is the same tradeoff kadirpekel-hector's OpenAI Responses client
// makes for exactly the same reason.
func sseLines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		reader := bufio.NewReaderSize(r, 64*1024)
		for {
			line, err := reader.ReadBytes('\n')
			if len(line) > 0 {
				trimmed := bytes.TrimRight(line, "\r\n")
				if after, ok := cutPrefix(trimmed, []byte("data:")); ok {
					payload := bytes.TrimSpace(after)
					if len(payload) > 0 {
						out <- string(payload)
					}
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

func cutPrefix(b, prefix []byte) ([]byte, bool) {
	if !bytes.HasPrefix(b, prefix) {
		return nil, false
	}
	return b[len(prefix):], true
}
