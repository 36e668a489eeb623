package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/justsurfingit/ai-job-hunter/internal/models"
)

const (
	sourceName104 = "104 Job Bank"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

// jobIDPattern extracts the opaque job id from a 104 job URL,
// e.g. https://www.104.com.tw/job/abc123?jobsource=... -> abc123
var jobIDPattern = regexp.MustCompile(`/job/([^?/]+)`)

// Client104 scrapes www.104.com.tw. Listings come from the site's search
// JSON API; descriptions come from the ajax content API with the job page
// HTML as a fallback when the API turns up empty.
type Client104 struct {
	BaseURL    string
	httpClient *http.Client
}

func NewClient104() *Client104 {
	return &Client104{
		BaseURL: "https://www.104.com.tw",
		// One bounded timeout per outbound call; a slow page must not
		// stall the whole run.
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client104) Name() string { return sourceName104 }

// job104 is the slice of a 104 search-list item we care about.
type job104 struct {
	JobName        string `json:"jobName"`
	CustName       string `json:"custName"`
	JobAddrNoDesc  string `json:"jobAddrNoDesc"`
	JobAddress     string `json:"jobAddress"`
	Period         string `json:"period"`
	OptionEdu      string `json:"optionEdu"`
	SalaryDesc     string `json:"salaryDesc"`
	AppearDate     string `json:"appearDate"`
	CoIndustryDesc string `json:"coIndustryDesc"`
	Link           struct {
		Job string `json:"job"`
	} `json:"link"`
}

type listResponse104 struct {
	Data struct {
		List []json.RawMessage `json:"list"`
	} `json:"data"`
}

type contentResponse104 struct {
	Data struct {
		JobDetail struct {
			JobDescription string `json:"jobDescription"`
		} `json:"jobDetail"`
	} `json:"data"`
}

// FetchPage pulls one page of search results. An empty slice means the
// search is exhausted.
func (c *Client104) FetchPage(ctx context.Context, keyword string, page int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("order", "15")
	params.Set("page", strconv.Itoa(page))
	params.Set("mode", "s")
	params.Set("jobsource", "2018indexpoc")

	listURL := c.BaseURL + "/jobs/search/list?" + params.Encode()

	var resp listResponse104
	if err := c.getJSON(ctx, listURL, c.BaseURL+"/jobs/search/", &resp); err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	return resp.Data.List, nil
}

// Normalize maps one raw search-list item into our Job shape. It performs
// no I/O; the description stays empty and is filled by the backfill pass.
func (c *Client104) Normalize(raw json.RawMessage) (models.Job, error) {
	var item job104
	if err := json.Unmarshal(raw, &item); err != nil {
		return models.Job{}, malformed("decode list item: %v", err)
	}
	if item.JobName == "" {
		return models.Job{}, malformed("list item has no job name")
	}
	if item.Link.Job == "" {
		return models.Job{}, malformed("list item %q has no job link", item.JobName)
	}

	return models.Job{
		Title:         item.JobName,
		Company:       item.CustName,
		Location:      buildLocation(item.JobAddrNoDesc, item.JobAddress),
		Experience:    convertExperience(item.Period),
		Education:     defaultIfEmpty(item.OptionEdu, educationFallback),
		SalaryRange:   defaultIfEmpty(item.SalaryDesc, salaryFallback),
		JobURL:        absoluteURL(item.Link.Job),
		SourceWebsite: sourceName104,
		PostingDate:   item.AppearDate,
		Industry:      item.CoIndustryDesc,
	}, nil
}

// FetchDescription pulls the full job description for one posting. The
// ajax content API is tried first; when it fails or comes back empty the
// job page itself is scraped.
func (c *Client104) FetchDescription(ctx context.Context, jobURL string) (string, error) {
	if m := jobIDPattern.FindStringSubmatch(jobURL); m != nil {
		contentURL := c.BaseURL + "/job/ajax/content/" + m[1]
		var resp contentResponse104
		if err := c.getJSON(ctx, contentURL, jobURL, &resp); err == nil {
			if desc := strings.TrimSpace(resp.Data.JobDetail.JobDescription); desc != "" {
				return desc, nil
			}
		}
	}
	return c.scrapeDescription(ctx, jobURL)
}

// scrapeDescription parses the job page HTML and pulls the description
// element the way a browser sees it.
func (c *Client104) scrapeDescription(ctx context.Context, jobURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jobURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch job page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch job page: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse job page: %w", err)
	}

	desc := strings.TrimSpace(doc.Find(`div[data-qa-id="jobDescription"]`).First().Text())
	if desc == "" {
		return "", errors.New("job page has no description element")
	}
	return desc, nil
}

func (c *Client104) getJSON(ctx context.Context, rawURL, referer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
