package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"elixirblog/internal/markdown"
	"elixirblog/internal/models"
)

type seedCategory struct {
	slug, name, description string
}

type seedPost struct {
	slug, title, summary, author string
	body                         string
	publishedAt                  time.Time
	popular                      bool
	featuredRank                 int // 0 = not featured
	tags                         []string
}

// "database" intentionally has no posts so the empty category state is
// reachable in development.
var seedCategories = []seedCategory{
	{"elixir", "Elixir", "함수형 언어 Elixir의 문법과 관용구"},
	{"phoenix", "Phoenix", "Phoenix 프레임워크로 웹 애플리케이션 만들기"},
	{"liveview", "LiveView", "서버 렌더링 기반의 실시간 UI"},
	{"otp", "OTP", "프로세스, 슈퍼비전, 장애 격리"},
	{"database", "데이터베이스", "Ecto와 PostgreSQL 활용"},
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

var seedPosts = []seedPost{
	{
		slug:         "background-jobs",
		title:        "Elixir로 백그라운드 작업 처리하기",
		summary:      "Task, GenServer, 그리고 잡 큐를 활용해 요청 흐름 밖에서 안전하게 작업을 실행하는 방법을 알아봅니다.",
		author:       "김철수",
		publishedAt:  day(2024, time.March, 15),
		popular:      true,
		featuredRank: 1,
		tags:         []string{"elixir", "otp"},
		body: `## 왜 백그라운드 작업인가

이메일 발송이나 이미지 변환처럼 오래 걸리는 작업을 요청 처리 중에 실행하면 응답이 느려집니다.
Elixir에서는 가벼운 프로세스 덕분에 이런 작업을 손쉽게 분리할 수 있습니다.

## Task로 시작하기

가장 간단한 방법은 ` + "`Task.start/1`" + `입니다.

~~~elixir
Task.start(fn ->
  Mailer.deliver(welcome_email(user))
end)
~~~

### Task.Supervisor 사용하기

감독되지 않는 Task는 실패 시 흔적 없이 사라집니다. 애플리케이션 트리에 ` + "`Task.Supervisor`" + `를 두고
` + "`Task.Supervisor.start_child/2`" + `로 실행하세요.

## 잡 큐로 확장하기

재시도와 예약 실행이 필요하다면 데이터베이스 기반 잡 큐를 도입합니다.

### 재시도 전략

지수 백오프로 재시도 간격을 늘리고, 최대 시도 횟수를 넘기면 작업을 폐기 상태로 옮깁니다.

### 멱등성

같은 작업이 두 번 실행되어도 결과가 같도록 설계해야 합니다.

## 마무리

작은 작업은 Task로, 신뢰성이 필요한 작업은 잡 큐로 처리하는 것이 좋은 출발점입니다.
`,
	},
	{
		slug:         "pattern-matching",
		title:        "Elixir 패턴 매칭 완벽 가이드",
		summary:      "= 연산자부터 함수 헤드, case와 with까지 Elixir 패턴 매칭의 모든 것을 정리했습니다.",
		author:       "이영희",
		publishedAt:  day(2024, time.March, 8),
		popular:      true,
		featuredRank: 2,
		tags:         []string{"elixir"},
		body: `## 매치 연산자

Elixir에서 ` + "`=`" + `는 대입이 아니라 매치 연산자입니다.

~~~elixir
{:ok, result} = File.read("hello.txt")
~~~

## 함수 헤드에서의 매칭

여러 함수 절을 정의하면 인자의 모양에 따라 실행될 절이 결정됩니다.

### 가드 절

` + "`when`" + `을 사용하면 타입이나 범위를 추가로 검사할 수 있습니다.

## with 표현식

여러 단계의 성공 경로를 깔끔하게 표현할 때 유용합니다.
`,
	},
	{
		slug:         "liveview-basics",
		title:        "Phoenix LiveView 시작하기",
		summary:      "자바스크립트 없이 실시간 인터페이스를 만드는 LiveView의 기본 개념과 생명주기를 살펴봅니다.",
		author:       "박민수",
		publishedAt:  day(2024, time.February, 27),
		popular:      true,
		featuredRank: 3,
		tags:         []string{"phoenix", "liveview"},
		body: `## LiveView란

LiveView는 서버에서 상태를 관리하고 변경된 부분만 브라우저로 보내는 방식입니다.

## 생명주기

### mount

최초 요청과 소켓 연결 시 각각 한 번씩 호출됩니다.

### handle_event

사용자 이벤트를 받아 상태를 갱신합니다.

~~~elixir
def handle_event("inc", _params, socket) do
  {:noreply, update(socket, :count, &(&1 + 1))}
end
~~~

## 정리

상태는 서버에, 렌더링은 선언적으로 유지하는 것이 핵심입니다.
`,
	},
	{
		slug:        "genserver-deep-dive",
		title:       "GenServer 깊이 알아보기",
		summary:     "call과 cast의 차이, 타임아웃, 상태 관리까지 GenServer를 제대로 사용하는 법.",
		author:      "정수진",
		publishedAt: day(2024, time.February, 14),
		tags:        []string{"otp", "elixir"},
		body: `## GenServer의 역할

GenServer는 상태를 가진 프로세스를 표준화된 방식으로 구현하게 해 줍니다.

## call과 cast

### 동기 호출

` + "`GenServer.call/3`" + `은 응답을 기다리며 기본 타임아웃은 5초입니다.

### 비동기 메시지

` + "`GenServer.cast/2`" + `는 응답을 기다리지 않습니다.

## 상태 설계

하나의 GenServer에 너무 많은 책임을 두면 병목이 됩니다.
`,
	},
	{
		slug:        "phoenix-contexts",
		title:       "Phoenix 컨텍스트로 도메인 설계하기",
		summary:     "컨텍스트 경계를 나누는 기준과 웹 계층과 비즈니스 로직을 분리하는 방법.",
		author:      "강민지",
		publishedAt: day(2024, time.January, 30),
		popular:     true,
		tags:        []string{"phoenix"},
		body: `## 컨텍스트란

컨텍스트는 관련된 기능을 묶어 공개 API로 노출하는 모듈입니다.

## 경계 나누기

### 데이터가 아니라 행위로

테이블 단위가 아니라 사용 사례 단위로 경계를 나눕니다.

## 컨트롤러는 얇게

컨트롤러는 컨텍스트 함수를 호출하고 결과를 렌더링하는 일만 합니다.
`,
	},
	{
		slug:        "liveview-components",
		title:       "LiveView 컴포넌트 설계 패턴",
		summary:     "함수 컴포넌트와 LiveComponent를 언제, 어떻게 사용할지 예제로 정리합니다.",
		author:      "이영희",
		publishedAt: day(2024, time.January, 18),
		tags:        []string{"liveview"},
		body: `## 함수 컴포넌트

상태가 없는 UI 조각은 함수 컴포넌트로 충분합니다.

## LiveComponent

### 상태가 필요할 때

자체 이벤트를 처리해야 한다면 LiveComponent를 사용합니다.

## slot 활용

slot으로 호출하는 쪽이 내부 마크업을 채우게 할 수 있습니다.
`,
	},
	{
		slug:        "supervision-trees",
		title:       "슈퍼비전 트리와 장애 격리",
		summary:     "Let it crash 철학과 재시작 전략으로 견고한 시스템을 만드는 방법.",
		author:      "김철수",
		publishedAt: day(2023, time.December, 12),
		tags:        []string{"otp"},
		body: `## Let it crash

오류를 모두 방어하려 하지 말고, 실패한 프로세스를 깨끗한 상태로 다시 시작합니다.

## 재시작 전략

### one_for_one

실패한 자식만 다시 시작합니다.

### rest_for_one

실패한 자식과 그 뒤에 시작된 자식들을 다시 시작합니다.

## 트리 설계

의존 관계가 있는 프로세스는 같은 슈퍼바이저 아래에 순서대로 둡니다.
`,
	},
	{
		slug:        "elixir-streams",
		title:       "Stream으로 대용량 데이터 다루기",
		summary:     "Enum 대신 Stream을 사용해 메모리를 아끼며 큰 파일과 무한 시퀀스를 처리합니다.",
		author:      "박민수",
		publishedAt: day(2023, time.November, 20),
		tags:        []string{"elixir"},
		body: `## Enum과 Stream

Enum은 즉시 평가하고 Stream은 필요할 때까지 평가를 미룹니다.

## 파일 처리

~~~elixir
File.stream!("big.csv")
|> Stream.map(&String.trim/1)
|> Enum.take(10)
~~~

## 주의할 점

Stream도 결국 Enum 함수로 실행해야 결과가 나옵니다.
`,
	},
}

// CategoryWriter stores categories. It is satisfied by *store.CategoryStore.
type CategoryWriter interface {
	Upsert(ctx context.Context, c *models.Category) (*models.Category, error)
}

// PostWriter stores posts. It is satisfied by *store.PostStore, whose
// Upsert rejects tags that name no category.
type PostWriter interface {
	Count(ctx context.Context) (int, error)
	Upsert(ctx context.Context, p *models.Post) (*models.Post, error)
}

// Seed populates the database with development content: categories, posts
// and their tags. It does nothing when any post already exists, so real
// content is never mixed with samples.
func Seed(ctx context.Context, categories CategoryWriter, posts PostWriter) error {
	count, err := posts.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed check posts: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping", "posts", count)
		return nil
	}

	for i, c := range seedCategories {
		_, err := categories.Upsert(ctx, &models.Category{
			Slug:        c.slug,
			Name:        c.name,
			Description: c.description,
			SortOrder:   i + 1,
		})
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.slug, err)
		}
	}

	for _, sp := range seedPosts {
		if _, err := posts.Upsert(ctx, sp.post()); err != nil {
			return fmt.Errorf("seed post %s: %w", sp.slug, err)
		}
	}

	slog.Info("database seeded with development content",
		"categories", len(seedCategories),
		"posts", len(seedPosts),
	)
	return nil
}

// post converts a sample into the model the store writes.
func (sp seedPost) post() *models.Post {
	p := &models.Post{
		Slug:        sp.slug,
		Title:       sp.title,
		Summary:     sp.summary,
		Body:        sp.body,
		Author:      sp.author,
		ReadingTime: markdown.ReadingTime(sp.body),
		Popular:     sp.popular,
		PublishedAt: sp.publishedAt,
		Categories:  sp.tags,
	}
	if sp.featuredRank > 0 {
		rank := sp.featuredRank
		p.FeaturedRank = &rank
	}
	return p
}
