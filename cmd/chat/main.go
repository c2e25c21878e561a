package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"multichat/pkg/client"
	"multichat/pkg/logger"
)

func main() {
	var (
		serverURL string
		stateDir  string
	)
	flag.StringVar(&serverURL, "server", "http://localhost:8080", "后端地址")
	flag.StringVar(&stateDir, "state", "", "本地状态目录（默认用户配置目录）")
	flag.Parse()

	_ = logger.Init("warn", "text")

	api := client.New(serverURL, client.WithTimeout(2*time.Minute))
	sessions := client.NewSessionStore(stateDir)
	controller := client.NewChatController(api, sessions)

	images := client.NewImageUploader(api, sessions)
	csvs := client.NewCSVUploader(api, sessions)
	documents := client.NewDocumentUploader(api, sessions)

	ctx := context.Background()

	if _, err := api.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "无法连接后端 %s: %v\n", serverURL, err)
		os.Exit(1)
	}

	// 历史加载失败不阻塞使用
	_ = controller.LoadHistory(ctx)

	fmt.Printf("会话 %s，%d 条历史消息。输入 /help 查看命令。\n",
		sessions.GetOrCreate(), len(controller.Messages()))
	if !sessions.Persistent() {
		fmt.Println("注意：状态目录不可用，会话标识不会跨进程保留")
	}
	for _, msg := range controller.Messages() {
		printMessage(msg)
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, line, controller, sessions, images, csvs, documents); quit {
				return
			}
			continue
		}

		if err := controller.SendMessage(ctx, line); err != nil {
			fmt.Printf("发送失败: %s\n", controller.Err())
			continue
		}

		msgs := controller.Messages()
		if len(msgs) > 0 {
			printMessage(msgs[len(msgs)-1])
		}
	}
}

func printMessage(msg client.Message) {
	fmt.Printf("%s> %s\n", msg.Role, msg.Content)
}

func runCommand(ctx context.Context, line string, controller *client.ChatController, sessions *client.SessionStore,
	images *client.ImageUploader, csvs *client.CSVUploader, documents *client.DocumentUploader) bool {

	fields := strings.Fields(line)
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(`命令:
  /history        显示全部历史
  /clear          清空服务端历史
  /new            开启新会话
  /image <path>   上传图片
  /csv <path>     上传 CSV 文件
  /csvurl <url>   从 URL 加载 CSV
  /doc <path>     上传文档
  /files          显示已上传的文件
  /rmimage /rmcsv /rmdoc  删除对应槽位
  /quit           退出`)

	case "/history":
		for _, msg := range controller.Messages() {
			printMessage(msg)
		}

	case "/clear":
		if err := controller.ClearHistory(ctx); err != nil {
			fmt.Printf("清空失败: %s\n", controller.Err())
		} else {
			fmt.Println("历史已清空")
		}

	case "/new":
		id := sessions.New()
		controller.Reset()
		fmt.Printf("新会话: %s\n", id)

	case "/image":
		if result, err := images.Upload(ctx, arg); err != nil {
			fmt.Printf("上传失败: %v\n", err)
		} else {
			fmt.Printf("已上传 %s (%s, %dx%d)\n",
				result.Filename, result.Format, result.Dimensions.Width, result.Dimensions.Height)
		}

	case "/csv":
		if result, err := csvs.Upload(ctx, arg); err != nil {
			fmt.Printf("上传失败: %v\n", err)
		} else {
			fmt.Printf("已上传 %s (%d 行, %d 列)\n", result.Filename, result.Rows, len(result.Columns))
		}

	case "/csvurl":
		if result, err := csvs.UploadURL(ctx, arg); err != nil {
			fmt.Printf("加载失败: %v\n", err)
		} else {
			fmt.Printf("已加载 %s (%d 行, %d 列)\n", result.Filename, result.Rows, len(result.Columns))
		}

	case "/doc":
		if result, err := documents.Upload(ctx, arg); err != nil {
			fmt.Printf("上传失败: %v\n", err)
		} else {
			fmt.Printf("已上传 %s (%d 词)\n", result.Filename, result.Metadata.WordCount)
		}

	case "/files":
		if img := images.Current(); img != nil {
			fmt.Printf("图片: %s\n", img.Filename)
		}
		if csv := csvs.Current(); csv != nil {
			fmt.Printf("CSV: %s\n", csv.Filename)
		}
		if doc := documents.Current(); doc != nil {
			fmt.Printf("文档: %s\n", doc.Filename)
		}

	case "/rmimage":
		reportRemove(images.Remove(ctx))
	case "/rmcsv":
		reportRemove(csvs.Remove(ctx))
	case "/rmdoc":
		reportRemove(documents.Remove(ctx))

	default:
		fmt.Printf("未知命令: %s\n", cmd)
	}

	return false
}

func reportRemove(err error) {
	if err != nil {
		fmt.Printf("删除失败: %v\n", err)
	} else {
		fmt.Println("已删除")
	}
}
