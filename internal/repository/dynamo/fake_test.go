package dynamo

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

const hashKey = "player_name"

var (
	scoreBelow = regexp.MustCompile(`score < (:\w+)`)
	assignment = regexp.MustCompile(`(\w+) = (:\w+)`)
)

type item = map[string]*dynamodb.AttributeValue

// fakeDynamo keeps one table in memory and honours the condition expressions
// the repository sends. Unimplemented API calls panic through the nil embed.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI

	mu    sync.Mutex
	items map[string]item
	err   error

	// Resolved expressions of the last write, for assertions
	lastCondition string
	lastUpdate    string
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]item)}
}

func conditionFailed() error {
	return awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "The conditional request failed", nil)
}

// resolve replaces attribute name placeholders with the real names
func resolve(expr *string, names map[string]*string) string {
	if expr == nil {
		return ""
	}
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	// Longest first so #a1 is not clobbered by #a
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	out := *expr
	for _, k := range keys {
		out = strings.ReplaceAll(out, k, aws.StringValue(names[k]))
	}
	return out
}

func numberOf(av *dynamodb.AttributeValue) int64 {
	if av == nil || av.N == nil {
		return 0
	}
	n, _ := strconv.ParseInt(*av.N, 10, 64)
	return n
}

func copyItem(in item) item {
	out := make(item, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (f *fakeDynamo) GetItemWithContext(_ aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	it, ok := f.items[aws.StringValue(in.Key[hashKey].S)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(it)}, nil
}

func (f *fakeDynamo) QueryWithContext(_ aws.Context, in *dynamodb.QueryInput, _ ...request.Option) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	out := &dynamodb.QueryOutput{Count: aws.Int64(0)}
	m := assignment.FindStringSubmatch(resolve(in.KeyConditionExpression, in.ExpressionAttributeNames))
	if m == nil || m[1] != hashKey {
		return out, nil
	}
	if it, ok := f.items[aws.StringValue(in.ExpressionAttributeValues[m[2]].S)]; ok {
		out.Items = []item{copyItem(it)}
		out.Count = aws.Int64(1)
	}
	return out, nil
}

func (f *fakeDynamo) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	key := aws.StringValue(in.Item[hashKey].S)
	f.lastCondition = resolve(in.ConditionExpression, in.ExpressionAttributeNames)
	if strings.Contains(f.lastCondition, "attribute_not_exists("+hashKey+")") {
		if _, exists := f.items[key]; exists {
			return nil, conditionFailed()
		}
	}

	f.items[key] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItemWithContext(_ aws.Context, in *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	key := aws.StringValue(in.Key[hashKey].S)
	existing, exists := f.items[key]

	f.lastCondition = resolve(in.ConditionExpression, in.ExpressionAttributeNames)
	if strings.Contains(f.lastCondition, "attribute_exists("+hashKey+")") && !exists {
		return nil, conditionFailed()
	}
	if m := scoreBelow.FindStringSubmatch(f.lastCondition); m != nil {
		if numberOf(existing["score"]) >= numberOf(in.ExpressionAttributeValues[m[1]]) {
			return nil, conditionFailed()
		}
	}

	updated := copyItem(existing)
	if updated == nil {
		updated = item{hashKey: in.Key[hashKey]}
	}
	f.lastUpdate = resolve(in.UpdateExpression, in.ExpressionAttributeNames)
	for _, m := range assignment.FindAllStringSubmatch(f.lastUpdate, -1) {
		updated[m[1]] = in.ExpressionAttributeValues[m[2]]
	}
	f.items[key] = updated

	return &dynamodb.UpdateItemOutput{Attributes: copyItem(updated)}, nil
}

func (f *fakeDynamo) ScanWithContext(_ aws.Context, in *dynamodb.ScanInput, _ ...request.Option) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	filter := assignment.FindStringSubmatch(resolve(in.FilterExpression, in.ExpressionAttributeNames))
	var projection []string
	if p := resolve(in.ProjectionExpression, in.ExpressionAttributeNames); p != "" {
		for _, name := range strings.Split(p, ",") {
			projection = append(projection, strings.TrimSpace(name))
		}
	}

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &dynamodb.ScanOutput{}
	for _, k := range keys {
		it := f.items[k]
		if filter != nil && aws.StringValue(it[filter[1]].S) != aws.StringValue(in.ExpressionAttributeValues[filter[2]].S) {
			continue
		}
		if projection == nil {
			out.Items = append(out.Items, copyItem(it))
			continue
		}
		projected := make(item, len(projection))
		for _, name := range projection {
			if v, ok := it[name]; ok {
				projected[name] = v
			}
		}
		out.Items = append(out.Items, projected)
	}
	out.Count = aws.Int64(int64(len(out.Items)))
	out.ScannedCount = aws.Int64(int64(len(f.items)))
	return out, nil
}

func (f *fakeDynamo) get(playerName string) (item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[playerName]
	return it, ok
}
